package supernote

import (
	"context"
	"crypto/md5" //nolint:gosec // the login handshake is defined over MD5
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fixed login payload values. countryCode "1" selects the email-account
// namespace; equipment "1" and loginMethod "1" identify a browser login.
const (
	countryCode  = "1"
	equipmentTag = "1"
	loginMethod  = "1"
	languageTag  = "en"
)

type randomCodeRequest struct {
	CountryCode string `json:"countryCode"`
	Account     string `json:"account"`
}

// randomCodeResponse carries the one-time code plus a timestamp that must
// be echoed back verbatim in the login payload, hence the RawMessage.
type randomCodeResponse struct {
	Success    bool            `json:"success"`
	ErrorMsg   string          `json:"errorMsg"`
	RandomCode string          `json:"randomCode"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

type loginRequest struct {
	CountryCode string          `json:"countryCode"`
	Account     string          `json:"account"`
	Password    string          `json:"password"`
	Browser     string          `json:"browser"`
	Equipment   string          `json:"equipment"`
	LoginMethod string          `json:"loginMethod"`
	Timestamp   json.RawMessage `json:"timestamp"`
	Language    string          `json:"language"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
	Token    string `json:"token"`
}

// Login performs the credential handshake and installs the resulting
// bearer token on the client: fetch a one-time code for the account,
// digest the password with it, exchange the digest for a token. The
// token is also returned so the caller can persist it.
//
// The password itself never leaves the process; only the digest is sent.
func (c *Client) Login(ctx context.Context, account, password string) (string, error) {
	code, timestamp, err := c.randomCode(ctx, account)
	if err != nil {
		return "", err
	}

	payload := loginRequest{
		CountryCode: countryCode,
		Account:     account,
		Password:    passwordDigest(password, code),
		Browser:     browserTag,
		Equipment:   equipmentTag,
		LoginMethod: loginMethod,
		Timestamp:   timestamp,
		Language:    languageTag,
	}

	raw, err := c.post(ctx, "login", endpointLogin, payload)
	if err != nil {
		return "", err
	}

	var out loginResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &APIError{Op: "login", Message: fmt.Sprintf("malformed response: %v", err)}
	}

	if !out.Success {
		return "", &AuthError{Message: out.ErrorMsg}
	}

	if out.Token == "" {
		return "", &AuthError{Message: "no token in login response"}
	}

	c.accessToken = out.Token
	c.logger.Debug("login succeeded")

	return out.Token, nil
}

// randomCode fetches the one-time login code and echo timestamp for an
// account. The service rejects unknown accounts here, before any
// password material is involved.
func (c *Client) randomCode(ctx context.Context, account string) (string, json.RawMessage, error) {
	payload := randomCodeRequest{CountryCode: countryCode, Account: account}

	raw, err := c.post(ctx, "random code", endpointRandomCode, payload)
	if err != nil {
		return "", nil, err
	}

	var out randomCodeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", nil, &APIError{Op: "random code", Message: fmt.Sprintf("malformed response: %v", err)}
	}

	if !out.Success {
		return "", nil, &AuthError{Message: out.ErrorMsg}
	}

	if out.RandomCode == "" {
		return "", nil, &AuthError{Message: "no verification code issued"}
	}

	return out.RandomCode, out.Timestamp, nil
}

// passwordDigest computes the login digest the handshake calls for: hex
// SHA-256 over the hex MD5 of the password concatenated with the
// one-time code.
func passwordDigest(password, code string) string {
	inner := md5.Sum([]byte(password)) //nolint:gosec // dictated by the handshake
	outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + code))

	return hex.EncodeToString(outer[:])
}
