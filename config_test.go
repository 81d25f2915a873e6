package main

import "testing"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{port: 8080}, false},
		{"tls pair", Config{port: 8080, tlsCert: "cert.pem", tlsKey: "key.pem"}, false},
		{"cert without key", Config{port: 8080, tlsCert: "cert.pem"}, true},
		{"key without cert", Config{port: 8080, tlsKey: "key.pem"}, true},
		{"port too low", Config{port: 0}, true},
		{"port too high", Config{port: 70000}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := Config{}
	if cfg.scheme() != "http" {
		t.Errorf("scheme() = %q, want http", cfg.scheme())
	}

	cfg = Config{tlsCert: "cert.pem", tlsKey: "key.pem"}
	if cfg.scheme() != "https" {
		t.Errorf("scheme() = %q, want https", cfg.scheme())
	}
}
