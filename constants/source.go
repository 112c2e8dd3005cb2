package constants

// Source tells which extraction path produced a result.
type Source string

const SourceAI Source = "ai"

// DefaultCurrency is the only currency the heuristic path reports.
const DefaultCurrency = "RUB"
