package app

// Builtin price sources register their factories at import time. The
// metrics sink factories ship with infra/metrics, which service.go
// already imports.
import (
	_ "github.com/voltlab/smartcharge/connectors/tariff"
)
