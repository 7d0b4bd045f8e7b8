package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	convAuth "github.com/sofmon/posgate/lib/auth"
	convCtx "github.com/sofmon/posgate/lib/ctx"
)

const (
	BackendSignInPath  = "/auth/sign-in"
	BackendSignOutPath = "/auth/sign-out"

	defaultClientTimeout = 15 * time.Second
)

var (
	ErrBackendUnreachable = errors.New("authentication service is unreachable, please try again later")
	ErrSignInRejected     = errors.New("sign-in was rejected")
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Backend is the REST service owning users, roles and subscriptions.
type Backend interface {
	SignIn(ctx convCtx.Context, creds Credentials) (SignInPayload, error)
	SignOut(ctx convCtx.Context, token string) error
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SignIn posts the credentials. A response body that does not have the
// expected shape is not an error; the caller gets a degraded payload.
func (c *Client) SignIn(ctx convCtx.Context, creds Credentials) (payload SignInPayload, err error) {
	ctx = ctx.WithScope("Client.SignIn", "username", creds.Username)
	defer ctx.Exit(&err)

	body, err := json.Marshal(creds)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+BackendSignInPath, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	setCallHeaders(ctx, req)

	res, err := c.http.Do(req)
	if err != nil {
		err = errors.Join(ErrBackendUnreachable, err)
		return
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		err = errors.Join(ErrBackendUnreachable, err)
		return
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = fmt.Errorf("%w: %s", ErrSignInRejected, rejectionMessage(res, raw))
		return
	}

	if e := json.Unmarshal(raw, &payload); e != nil {
		ctx.Logger().Warn("unexpected sign-in response shape", "error", e.Error())
		var tokenOnly struct {
			Token string `json:"token"`
		}
		_ = json.Unmarshal(raw, &tokenOnly)
		payload = SignInPayload{Token: tokenOnly.Token}
	}

	return
}

// setCallHeaders lets the backend correlate the call with the gate's logs.
func setCallHeaders(ctx convCtx.Context, req *http.Request) {
	req.Header.Set("User-Agent", string(ctx.Agent()))
	req.Header.Set(convCtx.HttpHeaderWorkflow, string(ctx.Workflow()))
}

// SignOut notifies the backend. Callers treat failures as non-fatal.
func (c *Client) SignOut(ctx convCtx.Context, token string) (err error) {
	ctx = ctx.WithScope("Client.SignOut")
	defer ctx.Exit(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+BackendSignOutPath, nil)
	if err != nil {
		return
	}
	if token != "" {
		req.Header.Set(convAuth.HttpHeaderAuthorization, "Bearer "+token)
	}
	setCallHeaders(ctx, req)

	res, err := c.http.Do(req)
	if err != nil {
		return
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = fmt.Errorf("unexpected status code: %s", res.Status)
	}

	return
}

func rejectionMessage(res *http.Response, raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return body.Message
	}
	return res.Status
}
