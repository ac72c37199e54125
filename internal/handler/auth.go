package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/greenbite/internal/domain/auth"
	"github.com/xenking/greenbite/internal/domain/user"
)

// Signup registers a customer or shop account.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	p := &req.Profile
	fields := map[string]*string{
		"firstName":   &p.FirstName,
		"surname":     &p.Surname,
		"username":    &p.Username,
		"email":       &p.Email,
		"district":    &p.District,
		"phoneNumber": &p.PhoneNumber,
		"address":     &p.Address,
		"password":    &req.Password,
	}
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key == "role" {
			role, err := decodeOptionalStr(d)
			req.Role = user.Role(strings.ToLower(strings.TrimSpace(role)))
			return err
		}
		dst, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		v, err := decodeOptionalStr(d)
		*dst = v
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.svc.Accounts.Signup(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeUser(e, u) })
}

// Login exchanges email and password for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}

	tok, err := h.svc.Accounts.Login(r.Context(), strings.TrimSpace(email), password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("token")
		e.Str(tok.Value)
		e.FieldStart("tokenType")
		e.Str("Bearer")
		e.FieldStart("expiresAt")
		encodeTime(e, tok.ExpiresAt)
		e.ObjEnd()
	})
}
