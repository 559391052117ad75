package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/eventlogging/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	EncryptionKey   string `json:"encryption_key"`
	UploadURL       string `json:"upload_url"`
	QueueStorageDir string `json:"queue_storage_dir"`
	AuthToken       string `json:"auth_token"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. Absent flag means no JSON is loaded. Only fields present in
// the file override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EncryptionKey != "" {
		cfg.EncryptionKey = jc.EncryptionKey
	}
	if jc.UploadURL != "" {
		cfg.UploadURL = jc.UploadURL
	}
	if jc.QueueStorageDir != "" {
		cfg.QueueStorageDir = jc.QueueStorageDir
	}
	if jc.AuthToken != "" {
		cfg.AuthToken = jc.AuthToken
	}
}
