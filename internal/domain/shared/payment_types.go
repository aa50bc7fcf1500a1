package shared

import "strings"

// PaymentMethod defines how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodCheck      PaymentMethod = "CHECK"
	PaymentMethodTransfer   PaymentMethod = "TRANSFER"
	PaymentMethodCard       PaymentMethod = "CARD"
	PaymentMethodMobile     PaymentMethod = "MOBILE"
	PaymentMethodAdjustment PaymentMethod = "ADJUSTMENT" // Reserved for correction entries
)

var paymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodCash:       {},
	PaymentMethodCheck:      {},
	PaymentMethodTransfer:   {},
	PaymentMethodCard:       {},
	PaymentMethodMobile:     {},
	PaymentMethodAdjustment: {},
}

// ParsePaymentMethod normalizes s and reports whether it names a known method
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := paymentMethods[m]
	return m, ok
}

// IsValid reports whether the method is one of the known payment methods
func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethods[m]
	return ok
}

// GroupBy defines the dimension a payment summary is aggregated on
type GroupBy string

const (
	GroupByServiceType GroupBy = "service_type"
	GroupByMethod      GroupBy = "method"
	GroupByDay         GroupBy = "day"
)

// IsValid reports whether g is a supported summary dimension
func (g GroupBy) IsValid() bool {
	switch g {
	case GroupByServiceType, GroupByMethod, GroupByDay:
		return true
	}
	return false
}

// AuditAction defines the state changes recorded in the audit trail
type AuditAction string

const (
	AuditActionPaymentRecorded  AuditAction = "PAYMENT_RECORDED"
	AuditActionPaymentCorrected AuditAction = "PAYMENT_CORRECTED"
	AuditActionDayLocked        AuditAction = "DAY_LOCKED"
	AuditActionDayUnlocked      AuditAction = "DAY_UNLOCKED"
)

// SubjectType identifies the kind of entity an audit record describes
type SubjectType string

const (
	SubjectTypePaymentEntry SubjectType = "PAYMENT_ENTRY"
	SubjectTypeDayLock      SubjectType = "DAY_LOCK"
)

// OutboxStatus defines audit delivery states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// Capability names a permission granted to an actor by the authorization layer
type Capability string

const (
	CapabilityRecord             Capability = "canRecord"
	CapabilityCorrect            Capability = "canCorrect"
	CapabilityLockDay            Capability = "canLockDay"
	CapabilityUnlockDay          Capability = "canUnlockDay"
	CapabilityManageServiceTypes Capability = "canManageServiceTypes"
)
