package gate

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	convCtx "github.com/sofmon/posgate/lib/ctx"
)

type ErrorCode string

const (
	ErrorCodeInternalError        ErrorCode = "internal_error"
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeForbidden            ErrorCode = "forbidden"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeNoTenant             ErrorCode = "no_tenant"
	ErrorCodeNoTenantSelected     ErrorCode = "no_tenant_selected"
	ErrorCodeSubscriptionInactive ErrorCode = "subscription_inactive"
	ErrorCodeBackendUnreachable   ErrorCode = "backend_unreachable"
)

func ErrorHasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var gateErr *Error
	if errors.As(err, &gateErr) {
		return gateErr.Code == code
	}
	return false
}

func NewError(ctx convCtx.Context, status int, code ErrorCode, message string, inner error) error {
	return newError(ctx, status, code, message, inner)
}

func newError(ctx convCtx.Context, status int, code ErrorCode, message string, inner error) (err *Error) {

	err = &Error{
		Status:  status,
		Code:    code,
		Message: message,
		Scope:   ctx.Scope(),
	}

	r := ctx.Request()
	if r != nil {
		err.Method = r.Method
		err.URL = r.URL.Path
	}
	if inner != nil {
		err.Message += " → " + inner.Error()
	}

	return
}

// Error is the JSON body of every response the gate produces itself.
type Error struct {
	URL      string    `json:"url,omitempty"`
	Method   string    `json:"method,omitempty"`
	Status   int       `json:"status,omitempty"`
	Code     ErrorCode `json:"code,omitempty"`
	Scope    string    `json:"scope,omitempty"`
	Message  string    `json:"message,omitempty"`
	Redirect string    `json:"redirect,omitempty"`
}

func (e Error) Error() string {
	sb := strings.Builder{}
	sb.WriteString("✘ ")
	sb.WriteString(e.Method)
	sb.WriteRune(' ')
	sb.WriteString(e.URL)
	sb.WriteString(" → ")
	sb.WriteString(strconv.Itoa(e.Status))
	sb.WriteRune(' ')
	sb.WriteString(string(e.Code))
	sb.WriteString(" → ")
	sb.WriteString(e.Message)
	return sb.String()
}

func ServeError(ctx convCtx.Context, w http.ResponseWriter, status int, code ErrorCode, message string, inner error) {
	serveError(w, newError(ctx, status, code, message, inner))
}

func serveError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(err)
}
