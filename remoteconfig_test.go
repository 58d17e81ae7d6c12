package bashx

import (
	"errors"
	"testing"
)

func TestRemoteConfig_addr(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{name: "empty", addr: "", want: "localhost:22"},
		{name: "hostOnly", addr: "example.com", want: "example.com:22"},
		{name: "hostAndPort", addr: "example.com:2222", want: "example.com:2222"},
		{name: "ipAndPort", addr: "127.0.0.1:24622", want: "127.0.0.1:24622"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &RemoteConfig{Addr: tt.addr}
			if got := c.addr(); got != tt.want {
				t.Errorf("addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemoteAuth_method(t *testing.T) {
	tests := []struct {
		name    string
		auth    RemoteAuth
		wantErr error
	}{
		{
			name:    "noneSet",
			auth:    RemoteAuth{},
			wantErr: ErrRemoteAuthMutex,
		},
		{
			name:    "multipleSet",
			auth:    RemoteAuth{Password: "p", PrivateKey: "k"},
			wantErr: ErrRemoteAuthMutex,
		},
		{
			name: "password",
			auth: RemoteAuth{Password: "p"},
		},
		{
			name:    "badKey",
			auth:    RemoteAuth{PrivateKey: "not a pem"},
			wantErr: errAny,
		},
		{
			name:    "missingKeyFile",
			auth:    RemoteAuth{PrivateKeyPath: "/no/such/key"},
			wantErr: errAny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, err := tt.auth.method()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("method() error = %v", err)
				}
				if method == nil {
					t.Fatal("method() returned nil AuthMethod")
				}
				return
			}
			if err == nil {
				t.Fatal("method() expected an error")
			}
			if tt.wantErr != errAny && !errors.Is(err, tt.wantErr) {
				t.Errorf("method() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// errAny marks table cases that only require some error.
var errAny = errors.New("any error")

func Test_hostKeyCallback_Insecure(t *testing.T) {
	cb, err := hostKeyCallback(&HostKeyCheck{InsecureIgnore: true})
	if err != nil {
		t.Fatalf("hostKeyCallback() error = %v", err)
	}
	if cb == nil {
		t.Fatal("hostKeyCallback() returned nil callback")
	}
}

func Test_hostKeyCallback_BadFixedKey(t *testing.T) {
	_, err := hostKeyCallback(&HostKeyCheck{FixedHostKey: "garbage"})
	if err == nil {
		t.Fatal("hostKeyCallback() expected an error for a bad fixed key")
	}
}
