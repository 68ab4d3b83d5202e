// Package security builds the server-side TLS settings of the debug
// surface.
//
//	cfg := security.TLSConfig{
//	    CertFile:     "certs/debug.pem",
//	    KeyFile:      "certs/debug-key.pem",
//	    ClientCAFile: "certs/operators-ca.pem",
//	}
//	tlsConfig, err := cfg.Build()
//
// A zero TLSConfig builds to nil and the listener stays cleartext.
package security
