package httpx

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as {"error": "..."} with the status of its kind.
// Internal failures are logged and reported without detail.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	code := apperr.Status(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		msg = "internal error"
	}
	WriteJSON(w, code, map[string]string{"error": msg})
}

// DecodeJSON decodes the request body into v, reporting malformed bodies as invalid input.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid body", apperr.ErrInvalidInput)
	}
	return nil
}

// Amount renders a monetary value as a JSON number with exactly two decimals.
type Amount decimal.Decimal

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).StringFixed(2)), nil
}
