package patient

import (
	"strings"
	"testing"
)

func TestUpdatePatientSQL_ReturnsTimestamps(t *testing.T) {
	if !strings.HasSuffix(strings.TrimSpace(updatePatientSQL), "RETURNING created_at, updated_at") {
		t.Errorf("update must return both timestamps:\n%s", updatePatientSQL)
	}
}
