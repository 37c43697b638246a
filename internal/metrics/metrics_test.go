package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordNotification(t *testing.T) {
	before := testutil.ToFloat64(NotificationsCreated.WithLabelValues("alert"))
	RecordNotification("alert")
	if got := testutil.ToFloat64(NotificationsCreated.WithLabelValues("alert")); got != before+1 {
		t.Errorf("alert counter = %v, want %v", got, before+1)
	}
}

func TestRecordStorageOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(StorageOperations.WithLabelValues("put", "success"))
	errBefore := testutil.ToFloat64(StorageOperations.WithLabelValues("put", "error"))

	RecordStorageOperation("put", nil)
	RecordStorageOperation("put", errors.New("boom"))

	if got := testutil.ToFloat64(StorageOperations.WithLabelValues("put", "success")); got != okBefore+1 {
		t.Errorf("success counter = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(StorageOperations.WithLabelValues("put", "error")); got != errBefore+1 {
		t.Errorf("error counter = %v, want %v", got, errBefore+1)
	}
}

func TestRecordPairingDecision(t *testing.T) {
	before := testutil.ToFloat64(PairingDecisions.WithLabelValues(OutcomeCapacityRejected))
	RecordPairingDecision(OutcomeCapacityRejected)
	if got := testutil.ToFloat64(PairingDecisions.WithLabelValues(OutcomeCapacityRejected)); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}
