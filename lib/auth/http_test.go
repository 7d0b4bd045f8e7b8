package auth_test

import (
	"encoding/base64"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"

	convAuth "github.com/sofmon/posgate/lib/auth"
)

func tokenWithPayload(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".c2lnbmF0dXJl"
}

func strPtr(s string) *string {
	return &s
}

func TestDecodeMalformedTokens(t *testing.T) {

	testData := []struct {
		name  string
		token string
		stage convAuth.DecodeStage
	}{
		{"empty", "", convAuth.DecodeStageSegments},
		{"single segment", "abc", convAuth.DecodeStageSegments},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1", convAuth.DecodeStageSegments},
		{"too many segments", "a.b.c.d", convAuth.DecodeStageSegments},
		{"non base64 payload", "eyJhbGciOiJIUzI1NiJ9.!!!$$$.sig", convAuth.DecodeStageBase64},
		{"invalid utf8", "h." + base64.RawURLEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}) + ".s", convAuth.DecodeStageUTF8},
		{"not json", tokenWithPayload("not json at all"), convAuth.DecodeStageJSON},
		{"truncated json", tokenWithPayload(`{"sub":"user1"`), convAuth.DecodeStageJSON},
		{"json array", tokenWithPayload(`["admin"]`), convAuth.DecodeStageJSON},
		{"json null", tokenWithPayload(`null`), convAuth.DecodeStageJSON},
	}

	for _, td := range testData {

		_, err := convAuth.DecodeClaims(td.token)
		if err == nil {
			t.Fatalf("%s: DecodeClaims succeeded on malformed token", td.name)
		}

		var decodeErr *convAuth.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("%s: expected *DecodeError, got %T", td.name, err)
		}
		if decodeErr.Stage != td.stage {
			t.Fatalf("%s: expected stage %s, got %s", td.name, td.stage, decodeErr.Stage)
		}

		claims := convAuth.ExtractClaims(nil, td.token)
		if !reflect.DeepEqual(claims, convAuth.Claims{}) {
			t.Fatalf("%s: expected default claims, got %+v", td.name, claims)
		}
	}
}

func TestDecodeClaimsFields(t *testing.T) {

	testData := []struct {
		name    string
		payload string
		expect  convAuth.Claims
	}{
		{
			name:    "numeric company id",
			payload: `{"sub":"cashier1","activeCompanyId":7,"tenantRole":"OWNER","roles":["admin"]}`,
			expect: convAuth.Claims{
				Subject:         "cashier1",
				ActiveCompanyID: convAuth.CompanyIDPtr("7"),
				TenantRole:      strPtr("OWNER"),
				Roles:           convAuth.PlainNames("admin"),
			},
		},
		{
			name:    "string company id and superadmin flag",
			payload: `{"sub":"ops","activeCompanyId":"acme","isSuperAdmin":true}`,
			expect: convAuth.Claims{
				Subject:         "ops",
				ActiveCompanyID: convAuth.CompanyIDPtr("acme"),
				IsSuperAdmin:    true,
			},
		},
		{
			name:    "null company id",
			payload: `{"sub":"ops","activeCompanyId":null,"isSuperAdmin":true}`,
			expect: convAuth.Claims{
				Subject:      "ops",
				IsSuperAdmin: true,
			},
		},
		{
			name:    "username used when sub is missing",
			payload: `{"username":"root"}`,
			expect: convAuth.Claims{
				Subject: "root",
			},
		},
		{
			name:    "fields with unexpected types are ignored",
			payload: `{"sub":"x","isSuperAdmin":"yes","roles":"admin","activeCompanyId":{"id":1}}`,
			expect: convAuth.Claims{
				Subject: "x",
			},
		},
		{
			name:    "mixed role entries",
			payload: `{"sub":"x","roles":["admin",{"name":"sales"},42,{"label":"nope"},{"name":7}]}`,
			expect: convAuth.Claims{
				Subject: "x",
				Roles:   convAuth.RoleEntries{convAuth.PlainName("admin"), convAuth.NamedObject("sales")},
			},
		},
		{
			name:    "empty object",
			payload: `{}`,
			expect:  convAuth.Claims{},
		},
	}

	for _, td := range testData {
		claims, err := convAuth.DecodeClaims(tokenWithPayload(td.payload))
		if err != nil {
			t.Fatalf("%s: DecodeClaims failed: %v", td.name, err)
		}
		if !reflect.DeepEqual(claims, td.expect) {
			t.Fatalf("%s: expected %+v, got %+v", td.name, td.expect, claims)
		}
	}
}

func TestDecodePaddedPayload(t *testing.T) {

	payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"ab"}`))
	claims, err := convAuth.DecodeClaims("h." + payload + ".s")
	if err != nil {
		t.Fatalf("DecodeClaims failed: %v", err)
	}
	if claims.Subject != "ab" {
		t.Fatalf("expected subject 'ab', got %q", claims.Subject)
	}
}

func TestGenerateTokenRoundTrip(t *testing.T) {

	testData := []convAuth.Claims{
		{
			Subject: "user1",
		},
		{
			Subject:         "cashier",
			ActiveCompanyID: convAuth.CompanyIDPtr("7"),
			TenantRole:      strPtr("CASHIER"),
			Roles:           convAuth.PlainNames("sales", "SALES"),
		},
		{
			Subject:         "platform",
			ActiveCompanyID: convAuth.CompanyIDPtr("tenant-a"),
			IsSuperAdmin:    true,
			Roles:           convAuth.RoleEntries{convAuth.NamedObject("superadmin"), convAuth.PlainName("admin")},
		},
	}

	for _, expect := range testData {

		token, err := convAuth.GenerateToken(expect)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}

		claims := convAuth.ExtractClaims(nil, token)
		if !reflect.DeepEqual(claims, expect) {
			t.Fatalf("round trip mismatch:\nexpected %+v\ngot      %+v", expect, claims)
		}
	}
}

func TestGenerateTokenConcurrent(t *testing.T) {

	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := convAuth.GenerateToken(convAuth.Claims{Subject: "user" + string(rune('a'+i))})
			if err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("GenerateToken failed: %v", err)
	}
}

func TestVerifyToken(t *testing.T) {

	signed, err := convAuth.GenerateToken(convAuth.Claims{
		Subject:         "cashier",
		ActiveCompanyID: convAuth.CompanyIDPtr("7"),
		Roles:           convAuth.PlainNames("sales"),
	})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if err := convAuth.VerifyToken(signed); err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}

	testData := []struct {
		name  string
		token string
	}{
		{"unsigned payload", tokenWithPayload(`{"sub":"cashier","isSuperAdmin":true}`)},
		{"garbage", "garbage"},
		{"empty", ""},
		{"tampered signature", signed[:len(signed)-4] + "AAAA"},
	}

	for _, td := range testData {
		err := convAuth.VerifyToken(td.token)
		if !errors.Is(err, convAuth.ErrUnverifiedToken) {
			t.Fatalf("%s: expected ErrUnverifiedToken, got %v", td.name, err)
		}
	}
}

func TestBearerToken(t *testing.T) {

	testData := []struct {
		header string
		token  string
		fail   bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
		{"Bearer", "", true},
		{"Bearer a b", "", true},
	}

	for _, td := range testData {
		r := &http.Request{Header: make(http.Header)}
		if td.header != "" {
			r.Header.Set(convAuth.HttpHeaderAuthorization, td.header)
		}
		token, err := convAuth.BearerToken(r)
		if td.fail {
			if !errors.Is(err, convAuth.ErrMissingAuthorizationHeader) {
				t.Fatalf("%q: expected ErrMissingAuthorizationHeader, got %v", td.header, err)
			}
			continue
		}
		if err != nil || token != td.token {
			t.Fatalf("%q: expected %q, got %q (%v)", td.header, td.token, token, err)
		}
	}
}
