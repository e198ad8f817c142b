package email

const (
	subjectCascadeStepFailedFmt = "Quotation %s: step %s failed"
)
