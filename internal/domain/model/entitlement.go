package model

import "time"

// CourseGrant is one purchased course, tagged with the request that authorized it.
type CourseGrant struct {
	UserID           string
	CourseID         string
	PaymentRequestID string
	GrantedAt        time.Time
}

// EntitlementRecord is the stored access state of a user.
type EntitlementRecord struct {
	UserID     string
	Grants     []CourseGrant
	Membership *Membership
}

func NewEntitlementRecord(userID string) *EntitlementRecord {
	return &EntitlementRecord{UserID: userID}
}

// CourseIDs returns granted course ids in grant order.
func (e *EntitlementRecord) CourseIDs() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Grants))
	for _, g := range e.Grants {
		out = append(out, g.CourseID)
	}
	return out
}

func (e *EntitlementRecord) HasCourse(courseID string) bool {
	if e == nil {
		return false
	}
	for _, g := range e.Grants {
		if g.CourseID == courseID {
			return true
		}
	}
	return false
}
