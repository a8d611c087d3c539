package push

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
)

func TestDecodeAuthToken(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("AWS:super-secret-password"))
	user, pass, err := DecodeAuthToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user != "AWS" || pass != "super-secret-password" {
		t.Fatalf("decoded %s/%s, want AWS/super-secret-password", user, pass)
	}
}

func TestDecodeAuthTokenPasswordMayContainColons(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("AWS:a:b:c"))
	_, pass, err := DecodeAuthToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pass != "a:b:c" {
		t.Fatalf("pass = %s, want a:b:c", pass)
	}
}

func TestDecodeAuthTokenRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeAuthToken("%%%not-base64%%%"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	noColon := base64.StdEncoding.EncodeToString([]byte("just-a-user"))
	if _, _, err := DecodeAuthToken(noColon); err == nil {
		t.Fatal("expected error for token without a separator")
	}
}

func TestPushRequiresRepository(t *testing.T) {
	_, err := Push(context.Background(), Options{Source: "app.tar"})
	if err == nil || !strings.Contains(err.Error(), "repository URI is required") {
		t.Fatalf("err = %v, want repository requirement", err)
	}
}

func TestLoadImageRequiresSource(t *testing.T) {
	if _, err := loadImage(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty source")
	}
}
