// Command logdecrypt recovers the plaintext of a v1 encrypted log container.
//
// The recipient public key is passed with -p (base64); the matching secret
// key is read from the terminal without echo, or from stdin when the input
// is piped. The recovered plaintext is written to stdout.
//
// Usage:
//
//	logdecrypt -p <base64 public key> container.json
package main

import (
	"bufio"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/eventlogging/logencrypt"
)

func main() {
	publicKeyB64 := flag.String("p", "", "base64 recipient public key")
	flag.Parse()

	if *publicKeyB64 == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: logdecrypt -p <base64 public key> <container.json>")
		os.Exit(2)
	}

	publicKey, err := base64.StdEncoding.DecodeString(*publicKeyB64)
	if err != nil {
		log.Fatalf("invalid public key: %v", err)
	}

	secretKey, err := readSecretKey()
	if err != nil {
		log.Fatalf("reading secret key: %v", err)
	}

	d, err := logencrypt.NewDecryptor(publicKey, secretKey)
	if err != nil {
		log.Fatalf("%v", err)
	}

	out, err := d.DecryptLog(flag.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer os.Remove(out)

	plaintext, err := os.ReadFile(out)
	if err != nil {
		log.Fatalf("reading decrypted log: %v", err)
	}
	if _, err := os.Stdout.Write(plaintext); err != nil {
		log.Fatalf("writing plaintext: %v", err)
	}
}

// readSecretKey reads the base64 secret key without echo when attached to a
// terminal, and from stdin otherwise (so the tool can be scripted).
func readSecretKey() ([]byte, error) {
	var line string

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "secret key: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		line = string(raw)
	} else {
		raw, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && raw == "" {
			return nil, err
		}
		line = raw
	}

	return base64.StdEncoding.DecodeString(strings.TrimSpace(line))
}
