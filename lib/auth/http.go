package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	jwt "github.com/golang-jwt/jwt/v5"

	convCfg "github.com/sofmon/posgate/lib/cfg"
)

const (
	HttpHeaderAuthorization = "Authorization"
)

var (
	ErrMissingAuthorizationHeader = errors.New("HTTP request has no valid Bearer authentication; expecting header like 'Authorization: Bearer <token>'")
	ErrMalformedToken             = errors.New("token must have three dot-separated segments")
	ErrInvalidPayloadEncoding     = errors.New("token payload is not valid base64url")
	ErrInvalidPayloadUTF8         = errors.New("token payload is not valid UTF-8")
	ErrInvalidPayloadJSON         = errors.New("token payload is not a JSON object")
	ErrUnverifiedToken            = errors.New("token signature could not be verified")
)

type DecodeStage string

const (
	DecodeStageSegments DecodeStage = "segments"
	DecodeStageBase64   DecodeStage = "base64"
	DecodeStageUTF8     DecodeStage = "utf8"
	DecodeStageJSON     DecodeStage = "json"
)

// DecodeError reports which step of the payload pipeline rejected a token.
type DecodeError struct {
	Stage DecodeStage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("token decode failed at %s stage: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var getHmacSecret = sync.OnceValues(func() ([]byte, error) {
	return convCfg.Bytes(convCfg.ConfigKeyCommunicationSecret)
})

// BearerToken returns the token of an 'Authorization: Bearer <token>' header.
func BearerToken(r *http.Request) (token string, err error) {

	authHeader := r.Header.Get(HttpHeaderAuthorization)
	if authHeader == "" {
		err = ErrMissingAuthorizationHeader
		return
	}

	authSplit := strings.Split(authHeader, " ")
	if len(authSplit) != 2 || authSplit[0] != "Bearer" || authSplit[1] == "" {
		err = ErrMissingAuthorizationHeader
		return
	}

	token = authSplit[1]
	return
}

// ExtractClaims decodes the token payload without verifying its signature.
// It never fails: a token that cannot be decoded is logged and yields Claims{}.
func ExtractClaims(logger *slog.Logger, token string) Claims {
	claims, err := DecodeClaims(token)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to decode token claims", "error", err.Error())
		}
		return Claims{}
	}
	return claims
}

// DecodeClaims runs the payload pipeline (segments, base64url, UTF-8, JSON)
// and returns a *DecodeError naming the failing stage.
func DecodeClaims(token string) (res Claims, err error) {

	segments := strings.Split(strings.TrimSpace(token), ".")
	if len(segments) != 3 {
		err = &DecodeError{DecodeStageSegments, ErrMalformedToken}
		return
	}

	payload, e := jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(segments[1])
	if e != nil {
		err = &DecodeError{DecodeStageBase64, errors.Join(ErrInvalidPayloadEncoding, e)}
		return
	}

	if !utf8.Valid(payload) {
		err = &DecodeError{DecodeStageUTF8, ErrInvalidPayloadUTF8}
		return
	}

	var raw map[string]json.RawMessage
	if e := json.Unmarshal(payload, &raw); e != nil || raw == nil {
		err = &DecodeError{DecodeStageJSON, errors.Join(ErrInvalidPayloadJSON, e)}
		return
	}

	res = claimsFromRaw(raw)
	return
}

// VerifyToken accepts only tokens signed (HS256) with the 'communication_secret'
// config key. It checks the signature only; the claims are read by ExtractClaims.
func VerifyToken(token string) (err error) {

	hmac, err := getHmacSecret()
	if err != nil {
		return errors.Join(ErrUnverifiedToken, err)
	}

	_, err = jwt.Parse(
		strings.TrimSpace(token),
		func(*jwt.Token) (any, error) { return hmac, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithPaddingAllowed(),
	)
	if err != nil {
		return errors.Join(ErrUnverifiedToken, err)
	}

	return nil
}

// claimsFromRaw picks the known fields one by one; a field with an unexpected
// type is left at its zero value instead of discarding the whole payload.
func claimsFromRaw(raw map[string]json.RawMessage) (res Claims) {

	var s string
	if json.Unmarshal(raw[claimSubject], &s) == nil && s != "" {
		res.Subject = s
	} else if json.Unmarshal(raw[claimUsername], &s) == nil {
		res.Subject = s
	}

	var company *CompanyID
	if json.Unmarshal(raw[claimActiveCompanyID], &company) == nil && company != nil && *company != "" {
		res.ActiveCompanyID = company
	}

	var tenantRole *string
	if json.Unmarshal(raw[claimTenantRole], &tenantRole) == nil && tenantRole != nil {
		res.TenantRole = tenantRole
	}

	var superAdmin bool
	if json.Unmarshal(raw[claimIsSuperAdmin], &superAdmin) == nil {
		res.IsSuperAdmin = superAdmin
	}

	res.Roles = decodeRoleEntries(raw[claimRoles])

	return
}

func decodeRoleEntries(raw json.RawMessage) (res RoleEntries) {
	if json.Unmarshal(raw, &res) != nil {
		return nil
	}
	return
}

// GenerateToken signs the claims with the 'communication_secret' config key (HS256).
func GenerateToken(claims Claims) (string, error) {

	hmac, err := getHmacSecret()
	if err != nil {
		return "", err
	}

	rawClaim := jwt.MapClaims{
		claimSubject:      claims.Subject,
		claimIsSuperAdmin: claims.IsSuperAdmin,
		claimIssuedAt:     jwt.NewNumericDate(time.Now()),
	}

	if claims.ActiveCompanyID != nil {
		rawClaim[claimActiveCompanyID] = *claims.ActiveCompanyID
	}
	if claims.TenantRole != nil {
		rawClaim[claimTenantRole] = *claims.TenantRole
	}
	if len(claims.Roles) > 0 {
		rawClaim[claimRoles] = claims.Roles
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, rawClaim)
	tokenString, err := token.SignedString(hmac)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}
