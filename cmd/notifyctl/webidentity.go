package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/lecturefeed/pkg/identity"
)

type webIdentity struct {
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"`
	Endpoint   string `json:"endpoint"`
}

// fetchIdentity asks the web front end which identifier to open the channel
// with. With credentials it logs in first so the answer is the
// authenticated user; the client's jar keeps the session and anonymous key
// cookies for later calls.
func fetchIdentity(ctx context.Context, client *http.Client, base, username, password string) (identity.Identifier, error) {
	base = strings.TrimRight(base, "/")

	if username != "" {
		body, _ := json.Marshal(map[string]string{"username": username, "password": password})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/auth/login", bytes.NewReader(body))
		if err != nil {
			return identity.Identifier{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return identity.Identifier{}, fmt.Errorf("login: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return identity.Identifier{}, fmt.Errorf("login: %s", resp.Status)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/identity", nil)
	if err != nil {
		return identity.Identifier{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return identity.Identifier{}, fmt.Errorf("identity: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return identity.Identifier{}, fmt.Errorf("identity: %s", resp.Status)
	}

	var wi webIdentity
	if err := json.NewDecoder(resp.Body).Decode(&wi); err != nil {
		return identity.Identifier{}, fmt.Errorf("identity: %w", err)
	}
	switch wi.Kind {
	case identity.KindAuthenticated.String():
		return identity.Authenticated(wi.Identifier), nil
	case identity.KindAnonymous.String():
		return identity.Anonymous(wi.Identifier), nil
	}
	return identity.Identifier{}, nil
}
