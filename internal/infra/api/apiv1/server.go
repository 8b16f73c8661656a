package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/api"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/usecase"
)

// Deps are the use cases served under /api/v1. A nil use case makes its
// routes answer 501.
type Deps struct {
	Auth         *api.AuthManager
	Catalog      adapter.CatalogProvider
	Plans        []model.MembershipPlan
	Users        usecase.UserUseCase
	Cart         usecase.CartUseCase
	Checkout     usecase.CheckoutUseCase
	Ledger       usecase.LedgerUseCase
	Approval     usecase.ApprovalUseCase
	Entitlements usecase.EntitlementUseCase
	Enrollments  usecase.EnrollmentUseCase
	Stats        usecase.StatsUseCase
}

type Server struct {
	d   Deps
	log *zerolog.Logger
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "APIv1").Logger()
	return &Server{d: d, log: &l}
}

// RegisterAPIV1 mounts every route under absolute /api/v1 paths.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/courses", s.listCourses)
		r.Get("/courses/{id}", s.getCourse)
		r.Get("/membership/plans", s.listPlans)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/cart", s.getCart)
			r.Post("/cart", s.addToCart)
			r.Delete("/cart/{courseID}", s.removeFromCart)

			r.Post("/checkout/cart", s.checkoutCart)
			r.Post("/checkout/courses", s.checkoutCourses)
			r.Post("/checkout/membership", s.checkoutMembership)

			r.Get("/me/requests", s.myRequests)
			r.Get("/me/entitlements", s.myEntitlements)
			r.Get("/me/courses", s.myCourses)

			r.Post("/courses/{id}/enroll", s.enroll)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/requests", s.listRequests)
			r.Post("/requests/{id}/approve", s.approveRequest)
			r.Post("/requests/{id}/reject", s.rejectRequest)
			r.Get("/stats", s.stats)
		})
	})
}

// Mount adapts RegisterAPIV1 for api.NewServer.
func Mount(s *Server) func(chi.Router) {
	return func(r chi.Router) { RegisterAPIV1(r, s) }
}

type ctxKey struct{}

func withClaims(ctx context.Context, c *api.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func claimsFrom(ctx context.Context) *api.Claims {
	c, _ := ctx.Value(ctxKey{}).(*api.Claims)
	return c
}

func identityFrom(ctx context.Context) *model.Identity {
	if c := claimsFrom(ctx); c != nil {
		return c.Identity()
	}
	return nil
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*api.Claims, bool) {
	if s.d.Auth == nil {
		s.writeError(w, r, domain.ErrUnauthenticated)
		return nil, false
	}
	claims, err := s.d.Auth.ParseFromRequest(r)
	if err != nil {
		s.writeError(w, r, domain.ErrUnauthenticated)
		return nil, false
	}
	return claims, true
}

// requireUser accepts any valid token and registers the user on first sight so
// the membership mirror and user counts have a row to work with.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		ctx := logging.WithUserID(withClaims(r.Context(), claims), claims.Subject)
		if s.d.Users != nil {
			if _, err := s.d.Users.RegisterOrFetch(ctx, claims.Identity(), ""); err != nil {
				s.writeError(w, r.WithContext(ctx), err)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
			return
		}
		ctx := logging.WithUserID(withClaims(r.Context(), claims), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type errorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrCourseIsFree),
		errors.Is(err, domain.ErrCourseNotFree):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrAlreadyOwned),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrRequestPending),
		errors.Is(err, domain.ErrCheckoutInFlight),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusUnauthorized:
		writeJSON(w, status, errorBody{Error: "unauthenticated", Redirect: "/signin"})
		return
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	}
	if status >= http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, status, errorBody{Error: http.StatusText(status)})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func notImplemented(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotImplemented, errorBody{Error: "not implemented"})
}
