package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"ledger/internal/core"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("request body must be a JSON object")

// decodeRecord reads the request body as an untyped JSON object. Numbers are
// kept as json.Number so amounts are not rounded through float64. An empty
// body decodes to an empty record.
func decodeRecord(w http.ResponseWriter, r *http.Request) (core.Record, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.UseNumber()

	rec := core.Record{}
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Record{}, nil
		}
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if rec == nil {
		return nil, errInvalidBody
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", errInvalidBody)
	}
	return rec, nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	return core.ParseID(chi.URLParam(r, "id"))
}

// parseDateRange reads optional start and end query values (YYYY-MM-DD).
func parseDateRange(q url.Values) (core.DateRange, error) {
	var (
		rng  core.DateRange
		errs []core.FieldError
	)
	read := func(field string) *core.Date {
		v := strings.TrimSpace(q.Get(field))
		if v == "" {
			return nil
		}
		d, err := core.ParseDate(v)
		if err != nil {
			errs = append(errs, core.FieldError{
				Field:    field,
				Value:    v,
				Messages: []string{"Date must be a valid YYYY-MM-DD calendar date"},
			})
			return nil
		}
		return &d
	}
	rng.Start = read("start")
	rng.End = read("end")

	if len(errs) == 0 && rng.Start != nil && rng.End != nil && rng.End.Before(rng.Start.Time) {
		errs = append(errs, core.FieldError{
			Field:    "end",
			Value:    rng.End.String(),
			Messages: []string{"End date must not be before start date"},
		})
	}
	if len(errs) > 0 {
		return core.DateRange{}, &core.ValidationError{Errors: errs}
	}
	return rng, nil
}
