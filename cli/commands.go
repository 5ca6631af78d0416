package cli

// Globals defines global flags available to all commands.
type Globals struct {
	Debug             bool   `help:"Log every lot match to stderr."`
	Telemetry         bool   `help:"Show timing telemetry for operations."`
	ReportingCurrency string `help:"Currency gains are expressed in." default:"AUD" env:"CAPGAINS_REPORTING_CURRENCY"`
	Tolerance         string `help:"Amounts at or below this count as zero." default:"1e-7"`
	Workers           int    `help:"Number of currencies calculated concurrently (0 for one per CPU)." default:"0"`
}

type Commands struct {
	Globals

	Gains  GainsCmd  `cmd:"" help:"Report the realized capital gain per currency."`
	Lots   LotsCmd   `cmd:"" help:"List the lots left open after matching."`
	Doctor DoctorCmd `cmd:"" help:"Doctor utilities for debugging exchange exports."`
}
