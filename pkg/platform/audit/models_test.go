package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "pokevault/pkg/domain"
)

func TestAuditEvent_Category(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventUserRegistered.Category())
	assert.Equal(t, CategorySecurity, EventSessionSuperseded.Category())
	assert.Equal(t, CategoryOperations, EventLoggedIn.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("unknown").Category())
}

func TestNew(t *testing.T) {
	userID := id.NewUserID()
	e := New(EventPasswordReset, userID)
	assert.Equal(t, CategoryCompliance, e.Category)
	assert.Equal(t, userID, e.UserID)
	assert.Equal(t, userID.String(), e.Subject)
	assert.Equal(t, "password_reset", e.Action)
}
