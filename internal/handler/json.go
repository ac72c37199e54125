package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

// decodeBody parses the request body as one JSON object, handing each field
// to fn. fn must consume the value, d.Skip() for fields it ignores.
func decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return badRequest("request body required")
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		var bad *badRequestError
		if errors.As(err, &bad) {
			return bad
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// decodeDecimal reads a JSON number, or a string holding one.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}

// decodeOptionalStr reads a string, treating null as empty.
func decodeOptionalStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	t, _, err := parseTime(s)
	return t, err
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseTime accepts RFC 3339, an ISO local date-time (read as UTC) or a bare
// date. dateOnly reports the last case.
func parseTime(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, false, nil
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, errors.Errorf("invalid date-time %q", s)
}

// queryPeriod reads startDate and endDate. A bare end date covers that whole
// day.
func queryPeriod(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	rawFrom, rawTo := q.Get("startDate"), q.Get("endDate")
	if rawFrom == "" || rawTo == "" {
		return from, to, badRequest("startDate and endDate are required")
	}
	if from, _, err = parseTime(rawFrom); err != nil {
		return from, to, badRequest("startDate: %v", err)
	}
	var dateOnly bool
	if to, dateOnly, err = parseTime(rawTo); err != nil {
		return from, to, badRequest("endDate: %v", err)
	}
	if dateOnly {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, chi.URLParam(r, name))
}

func queryID(r *http.Request, name string) (int64, error) {
	return parseID(name, r.URL.Query().Get(name))
}

func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, badRequest("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("%s must be a positive integer", name)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

// writeMessage answers mutations that have nothing to return but a
// confirmation.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeArr[T any](e *jx.Encoder, items []T, fn func(e *jx.Encoder, v *T)) {
	e.ArrStart()
	for i := range items {
		fn(e, &items[i])
	}
	e.ArrEnd()
}
