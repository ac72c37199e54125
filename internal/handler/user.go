package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/greenbite/internal/domain/loyalty"
	"github.com/xenking/greenbite/internal/domain/user"
)

// AddPoints credits normal points and converts full hundreds to greenBite
// points.
func (h *Handler) AddPoints(w http.ResponseWriter, r *http.Request) {
	var (
		userID int64
		points int
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userId":
			userID, err = d.Int64()
		case "points":
			points, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if userID <= 0 {
		fail(w, r, badRequest("userId must be a positive integer"))
		return
	}

	b, err := h.svc.Loyalty.AddPoints(r.Context(), userID, points)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.metrics.pointsAdded(r.Context(), points)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeBalance(e, b) })
}

// Points returns both counters for ?userId=.
func (h *Handler) Points(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.svc.Loyalty.Balance(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeBalance(e, b) })
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = authorizeUser(r, id)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.svc.Users.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

// UpdateProfile overwrites the profile fields present in the body and keeps
// the rest.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = authorizeUser(r, id)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	current, err := h.svc.Users.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}

	p := current.Profile
	fields := map[string]*string{
		"firstName":         &p.FirstName,
		"surname":           &p.Surname,
		"username":          &p.Username,
		"email":             &p.Email,
		"district":          &p.District,
		"phoneNumber":       &p.PhoneNumber,
		"address":           &p.Address,
		"profilePictureUrl": &p.ProfilePictureURL,
	}
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
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

	u, err := h.svc.Users.UpdateProfile(r.Context(), id, p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var (
		userID  int64
		loc     user.Location
		hasLat  bool
		hasLong bool
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userId":
			userID, err = d.Int64()
		case "latitude":
			loc.Latitude, err = d.Float64()
			hasLat = true
		case "longitude":
			loc.Longitude, err = d.Float64()
			hasLong = true
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if !hasLat || !hasLong {
		fail(w, r, badRequest("latitude and longitude are required"))
		return
	}
	if err := authorizeUser(r, userID); err != nil {
		fail(w, r, err)
		return
	}

	if err := h.svc.Users.UpdateLocation(r.Context(), userID, loc); err != nil {
		fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "location updated")
}

func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	loc, err := h.svc.Users.Location(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("latitude")
		e.Float64(loc.Latitude)
		e.FieldStart("longitude")
		e.Float64(loc.Longitude)
		e.ObjEnd()
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, users, encodeUser) })
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.Users.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}

func encodeBalance(e *jx.Encoder, b loyalty.Balance) {
	e.ObjStart()
	e.FieldStart("userId")
	e.Int64(b.UserID)
	e.FieldStart("normalPoints")
	e.Int(b.NormalPoints)
	e.FieldStart("greenBitePoints")
	e.Int(b.GreenBitePoints)
	e.ObjEnd()
}

func encodeUser(e *jx.Encoder, u *user.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(u.ID)
	e.FieldStart("firstName")
	e.Str(u.Profile.FirstName)
	e.FieldStart("surname")
	e.Str(u.Profile.Surname)
	e.FieldStart("username")
	e.Str(u.Profile.Username)
	e.FieldStart("email")
	e.Str(u.Profile.Email)
	e.FieldStart("district")
	e.Str(u.Profile.District)
	e.FieldStart("phoneNumber")
	e.Str(u.Profile.PhoneNumber)
	e.FieldStart("address")
	e.Str(u.Profile.Address)
	e.FieldStart("profilePictureUrl")
	e.Str(u.Profile.ProfilePictureURL)
	e.FieldStart("role")
	e.Str(string(u.Role))
	e.FieldStart("normalPoints")
	e.Int(u.NormalPoints)
	e.FieldStart("greenBitePoints")
	e.Int(u.GreenBitePoints)
	if u.Location != nil {
		e.FieldStart("latitude")
		e.Float64(u.Location.Latitude)
		e.FieldStart("longitude")
		e.Float64(u.Location.Longitude)
	}
	e.FieldStart("createdAt")
	encodeTime(e, u.CreatedAt)
	e.ObjEnd()
}
