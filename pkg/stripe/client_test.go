package stripe

import (
	"context"
	"testing"

	"github.com/ridersroast/motocafe-backend/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{
			name: "test env with test key",
			cfg: config.StripeConfig{
				APIKey:        "sk_test_abc",
				WebhookSecret: "whsec_abc",
				Env:           "test",
			},
		},
		{
			name: "test env with live key",
			cfg: config.StripeConfig{
				APIKey:        "sk_live_abc",
				WebhookSecret: "whsec_abc",
				Env:           "test",
			},
			wantErr: true,
		},
		{
			name: "live env with live key",
			cfg: config.StripeConfig{
				APIKey:        "sk_live_abc",
				WebhookSecret: "whsec_abc",
				Env:           "live",
			},
		},
		{
			name: "missing api key",
			cfg: config.StripeConfig{
				WebhookSecret: "whsec_abc",
				Env:           "test",
			},
			wantErr: true,
		},
		{
			name: "missing webhook secret",
			cfg: config.StripeConfig{
				APIKey: "sk_test_abc",
				Env:    "test",
			},
			wantErr: true,
		},
		{
			name: "unknown env",
			cfg: config.StripeConfig{
				APIKey:        "sk_test_abc",
				WebhookSecret: "whsec_abc",
				Env:           "staging",
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tc.cfg, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.API() == nil {
				t.Fatalf("expected underlying api client")
			}
			if client.SigningSecret() != "whsec_abc" {
				t.Fatalf("unexpected signing secret %q", client.SigningSecret())
			}
		})
	}
}

func TestCreateSessionRequiresLineItems(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:        "sk_test_abc",
		WebhookSecret: "whsec_abc",
		Env:           "test",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.CreateSession(context.Background(), SessionParams{Currency: "usd"}); err == nil {
		t.Fatalf("expected error for empty line items")
	}
}

func TestNilClientAccessorsAreSafe(t *testing.T) {
	var client *Client
	if client.API() != nil {
		t.Fatalf("expected nil api")
	}
	if client.Environment() != "" {
		t.Fatalf("expected empty environment")
	}
	if client.SigningSecret() != "" {
		t.Fatalf("expected empty signing secret")
	}
}
