package apiv1

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
)

// ----- public -----

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	if s.d.Catalog == nil {
		notImplemented(w)
		return
	}
	courses, err := s.d.Catalog.ListCourses(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(courses))
}

func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) {
	if s.d.Catalog == nil {
		notImplemented(w)
		return
	}
	c, err := s.d.Catalog.FindCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.d.Plans))
}

// ----- cart -----

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	if s.d.Cart == nil {
		notImplemented(w)
		return
	}
	cart, err := s.d.Cart.Get(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(cart))
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	if s.d.Cart == nil {
		notImplemented(w)
		return
	}
	var body addToCartBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	cart, err := s.d.Cart.Add(r.Context(), identityFrom(r.Context()), body.CourseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(cart))
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	if s.d.Cart == nil {
		notImplemented(w)
		return
	}
	cart, err := s.d.Cart.Remove(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "courseID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(cart))
}

// ----- checkout -----

// decodeOptional accepts an empty body as the zero value.
func decodeOptional(r *http.Request, v any) error {
	err := decodeJSON(r, v)
	if err != nil && r.ContentLength == 0 {
		return nil
	}
	return err
}

func (s *Server) checkoutCart(w http.ResponseWriter, r *http.Request) {
	if s.d.Checkout == nil {
		notImplemented(w)
		return
	}
	var body checkoutCartBody
	if err := decodeOptional(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	reqs, err := s.d.Checkout.SubmitCart(r.Context(), identityFrom(r.Context()), body.Contact)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"requests": toRequestDTOs(reqs)})
}

func (s *Server) checkoutCourses(w http.ResponseWriter, r *http.Request) {
	if s.d.Checkout == nil {
		notImplemented(w)
		return
	}
	var body checkoutCoursesBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	reqs, err := s.d.Checkout.SubmitCourses(r.Context(), identityFrom(r.Context()), body.CourseIDs, body.Contact)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"requests": toRequestDTOs(reqs)})
}

func (s *Server) checkoutMembership(w http.ResponseWriter, r *http.Request) {
	if s.d.Checkout == nil {
		notImplemented(w)
		return
	}
	var body checkoutMembershipBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	tier, err := model.ParseTier(strings.ToLower(strings.TrimSpace(body.Tier)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.d.Checkout.SubmitMembership(r.Context(), identityFrom(r.Context()), tier, body.Contact)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"request": toRequestDTO(req)})
}

// ----- me -----

func (s *Server) myRequests(w http.ResponseWriter, r *http.Request) {
	if s.d.Ledger == nil {
		notImplemented(w)
		return
	}
	id := identityFrom(r.Context())
	reqs, err := s.d.Ledger.ListByUser(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

func (s *Server) myEntitlements(w http.ResponseWriter, r *http.Request) {
	if s.d.Entitlements == nil {
		notImplemented(w)
		return
	}
	ctx := r.Context()
	id := identityFrom(ctx)

	purchased, err := s.d.Entitlements.PurchasedCourseIDs(ctx, id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.d.Entitlements.Membership(ctx, id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var free []string
	if s.d.Enrollments != nil {
		if free, err = s.d.Enrollments.EnrolledCourseIDs(ctx, id.UserID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	out := entitlementsDTO{
		PurchasedCourseIDs: nonNil(purchased),
		FreeCourseIDs:      nonNil(free),
	}
	if m != nil {
		out.Membership = &membershipDTO{
			Tier:             m.Tier,
			ActivatedAt:      m.ActivatedAt,
			ExpiresAt:        m.ExpiresAt,
			Active:           m.Active,
			PaymentRequestID: m.PaymentRequestID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) myCourses(w http.ResponseWriter, r *http.Request) {
	if s.d.Entitlements == nil {
		notImplemented(w)
		return
	}
	courses, err := s.d.Entitlements.MyCourses(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(courses))
}

func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	if s.d.Enrollments == nil {
		notImplemented(w)
		return
	}
	e, err := s.d.Enrollments.Enroll(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id":     e.UserID,
		"course_id":   e.CourseID,
		"enrolled_at": e.EnrolledAt,
	})
}

// ----- admin -----

func parseFilter(r *http.Request) (model.RequestFilter, error) {
	q := r.URL.Query()
	f := model.RequestFilter{
		UserID: strings.TrimSpace(q.Get("user")),
		Status: model.RequestStatus(strings.ToLower(q.Get("status"))),
		Kind:   model.RequestKind(strings.ToLower(q.Get("kind"))),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, domain.ErrInvalidArgument
	}
	if f.Kind != "" && f.Kind != model.RequestKindCourse && f.Kind != model.RequestKindMembership {
		return f, domain.ErrInvalidArgument
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, domain.ErrInvalidArgument
		}
		f.Limit = n
	}
	return f, nil
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	if s.d.Ledger == nil {
		notImplemented(w)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reqs, err := s.d.Ledger.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

func (s *Server) approveRequest(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, model.RequestStatusApproved)
}

func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, model.RequestStatusRejected)
}

// decide answers 200 with the current request. A request decided earlier is
// returned unchanged, so callers compare its status with the one they asked for.
func (s *Server) decide(w http.ResponseWriter, r *http.Request, want model.RequestStatus) {
	if s.d.Approval == nil {
		notImplemented(w)
		return
	}
	// drain so keep-alive connections are reusable
	_, _ = io.Copy(io.Discard, r.Body)

	id := chi.URLParam(r, "id")
	fn := lo.Ternary(want == model.RequestStatusApproved, s.d.Approval.Approve, s.d.Approval.Reject)
	req, err := fn(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req == nil {
		s.writeError(w, r, errors.New("approval returned no request"))
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	if s.d.Stats == nil {
		notImplemented(w)
		return
	}
	st, err := s.d.Stats.Totals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
