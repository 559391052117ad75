// Package eventlogging uploads encrypted diagnostic log files from a device
// to a remote endpoint.
//
// It wires a durable on-disk queue, a streaming encryptor, and an HTTP
// transport behind a one-at-a-time upload scheduler with exponential backoff.
// Typical flow: the host application enqueues log files via
// Service.EnqueueLogForUpload; the scheduler drains the queue oldest-first,
// encrypting each file to the recipient public key before it leaves the
// device, and backs off after failures. A Delegate lets the host veto
// uploads and observe progress; a DataSource supplies keys, endpoint, and
// storage locations.
//
// Queue contents survive process restarts: on construction the scheduler
// re-hydrates whatever the storage directory already holds and resumes
// uploading.
package eventlogging
