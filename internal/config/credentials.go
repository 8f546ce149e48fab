package config

import (
	"encoding/json"
	"errors"
	"encoding/pem"
	"fmt"
)

// Credentials is the typed form of a Google service-account key.
// It is parsed once when the configuration is loaded.
type Credentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`

	raw []byte
}

// ParseCredentials decodes and validates a service-account JSON blob.
// The returned error never contains key material.
func ParseCredentials(blob []byte) (*Credentials, error) {
	creds := &Credentials{}
	if err := json.Unmarshal(blob, creds); err != nil {
		return nil, errors.New("is not valid JSON")
	}

	switch {
	case creds.Type != "" && creds.Type != "service_account":
		return nil, fmt.Errorf("must describe a service_account, got type %q", creds.Type)
	case creds.ClientEmail == "":
		return nil, errors.New("has no client_email")
	case creds.PrivateKey == "":
		return nil, errors.New("has no private_key")
	case creds.TokenURI == "":
		return nil, errors.New("has no token_uri")
	}

	if block, _ := pem.Decode([]byte(creds.PrivateKey)); block == nil {
		return nil, errors.New("has a private_key that is not PEM encoded")
	}

	creds.raw = append([]byte(nil), blob...)
	return creds, nil
}

// JSON returns the original blob as handed to the Google client libraries.
func (c *Credentials) JSON() []byte {
	return c.raw
}

// String hides key material so credentials can be passed to a logger safely.
func (c *Credentials) String() string {
	return fmt.Sprintf("service account %s", c.ClientEmail)
}
