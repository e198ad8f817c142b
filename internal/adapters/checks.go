package adapters

import (
	pipesvc "eventquote_backend/internal/pipeline/service"
	quotesvc "eventquote_backend/internal/quotations/service"
	settingssvc "eventquote_backend/internal/settings/service"
)

// The pipeline and settings services satisfy the quotation ports directly.
var (
	_ quotesvc.EventStageWriter    = (*pipesvc.Service)(nil)
	_ quotesvc.PricingConfigReader = (*settingssvc.Service)(nil)
)
