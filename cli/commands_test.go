package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
)

const ledgerExport = `date,action,debit,credit,currency,rates
2021-01-01,Bought BTC,10,,AUD,$10 AUD
2021-01-01,Bought BTC,,1,BTC,
2021-01-02,Bought BTC,20,,AUD,$20 AUD
2021-01-02,Bought BTC,,1,BTC,
2021-01-03,Sold BTC,1,,BTC,$15 AUD
2021-01-03,Sold BTC,,15,AUD,
2021-01-04,Bought ETH,300,,AUD,$100 AUD
2021-01-04,Bought ETH,,3,ETH,
2021-01-05,Sent ETH,1,,ETH,
`

const shortExport = `date,action,debit,credit,currency,rates
2021-02-01,Bought XRP,10,,AUD,$1 AUD
2021-02-01,Bought XRP,,10,XRP,
2021-02-02,Sold XRP,20,,XRP,$2 AUD
2021-02-02,Sold XRP,,40,AUD,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run parses args like main does and runs the selected command.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var (
		cmds           Commands
		stdout, stderr bytes.Buffer
	)
	parser, err := kong.New(&cmds,
		kong.Name("capgains"),
		kong.Writers(&stdout, &stderr),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d: %s", code, stderr.String()) }),
		kong.Bind(&cmds.Globals),
	)
	assert.NoError(t, err)

	kctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = kctx.Run()
	return stdout.String(), stderr.String(), err
}

func TestGainsCmd(t *testing.T) {
	file := writeFile(t, "export.csv", ledgerExport)

	t.Run("Reports every currency", func(t *testing.T) {
		stdout, _, err := run(t, "gains", file)
		assert.NoError(t, err)
		assert.Equal(t, "Capital gain for BTC is 5.00 AUD\nCapital gain for ETH is 0.00 AUD\n", stdout)
	})

	t.Run("Total", func(t *testing.T) {
		stdout, _, err := run(t, "gains", "--total", file)
		assert.NoError(t, err)
		assert.Equal(t, "Capital gain for BTC is 5.00 AUD\nCapital gain for ETH is 0.00 AUD\nTotal capital gain is 5.00 AUD\n", stdout)
	})

	t.Run("Asset swap", func(t *testing.T) {
		swap := writeFile(t, "swap.csv", `date,action,debit,credit,currency,rates
2021-01-01,Bought BTC,500,,AUD,"1 BTC = $20,000 AUD"
2021-01-01,Bought BTC,,0.025,BTC,
2021-02-01,Traded BTC,0.025,,BTC,"1 BTC = $40,000 AUD"
2021-02-01,Traded BTC,,0.5,ETH,
2021-03-01,Sold ETH,0.5,,ETH,"1 ETH = $2,000 AUD"
2021-03-01,Sold ETH,,"1,000",AUD,
`)
		stdout, _, err := run(t, "gains", swap)
		assert.NoError(t, err)
		assert.Equal(t, "Capital gain for BTC is 500.00 AUD\nCapital gain for ETH is 0.00 AUD\n", stdout)
	})

	t.Run("Allowlist", func(t *testing.T) {
		stdout, _, err := run(t, "gains", "--allowlist=eth,doge", file)
		assert.NoError(t, err)
		assert.Equal(t, "Capital gain for ETH is 0.00 AUD\n", stdout)
	})

	t.Run("Interactive without terminal", func(t *testing.T) {
		stdout, stderr, err := run(t, "gains", "--interactive", file)
		assert.NoError(t, err)
		assert.Contains(t, stdout, "Capital gain for BTC is 5.00 AUD")
		assert.Contains(t, stderr, "reporting all currencies")
	})

	t.Run("Telemetry", func(t *testing.T) {
		_, stderr, err := run(t, "--telemetry", "gains", file)
		assert.NoError(t, err)
		assert.Contains(t, stderr, "gains export.csv")
		assert.Contains(t, stderr, "ledger.calculate BTC")
	})

	t.Run("Debug logging", func(t *testing.T) {
		_, stderr, err := run(t, "--debug", "gains", "--allowlist=BTC", file)
		assert.NoError(t, err)
		assert.Contains(t, stderr, "subtracting disposal from lot")
	})

	t.Run("Invalid tolerance", func(t *testing.T) {
		_, _, err := run(t, "--tolerance=tiny", "gains", file)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `invalid tolerance "tiny"`)
	})
}

func TestGainsCmd_Failures(t *testing.T) {
	t.Run("Failed currency does not stop the others", func(t *testing.T) {
		good := writeFile(t, "good.csv", ledgerExport)
		short := writeFile(t, "short.csv", shortExport)

		stdout, stderr, err := run(t, "gains", good, short)

		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr), "expected CommandError, got %v", err)
		assert.Equal(t, 1, ResultOf(err).ExitCode)

		assert.Equal(t, "Capital gain for BTC is 5.00 AUD\nCapital gain for ETH is 0.00 AUD\n", stdout)
		assert.Contains(t, stderr, "XRP: ")
		assert.Contains(t, stderr, "ran out of lots for XRP with 10 XRP left to match")
		assert.Contains(t, stderr, "Sold XRP,20,,XRP,$2 AUD")
		assert.Contains(t, stderr, "1 of 3 currencies failed")
	})

	t.Run("Malformed export", func(t *testing.T) {
		file := writeFile(t, "export.csv", "action,debit,credit,currency,rates\nReceived ETH,,1,ETH,\n")

		stdout, stderr, err := run(t, "gains", file)
		assert.Equal(t, 1, ResultOf(err).ExitCode)
		assert.Equal(t, "", stdout)
		assert.Contains(t, stderr, "no rate known for ETH")
		assert.Contains(t, stderr, "failed to read export")
	})
}

func TestLotsCmd(t *testing.T) {
	file := writeFile(t, "export.csv", ledgerExport)

	stdout, _, err := run(t, "lots", file)
	assert.NoError(t, err)
	assert.Equal(t, "BTC\n  1 BTC @ 20 AUD  cost 20.00 AUD\nETH\n  2 ETH @ 100 AUD  cost 200.00 AUD\n", stdout)
}

func TestDoctorCmd(t *testing.T) {
	file := writeFile(t, "export.csv", ledgerExport)

	t.Run("Rates", func(t *testing.T) {
		stdout, _, err := run(t, "doctor", "rates", file)
		assert.NoError(t, err)
		assert.Equal(t, "BTC  15 AUD\nETH  100 AUD\n", stdout)
	})

	t.Run("Records", func(t *testing.T) {
		stdout, stderr, err := run(t, "doctor", "records", file)
		assert.NoError(t, err)
		assert.Contains(t, stdout, `"transfer-out"`)
		assert.Contains(t, stdout, `"1 ETH @ 100"`)
		assert.Contains(t, stdout, `"10 AUD @ 10"`)
		assert.Contains(t, stderr, "Read 5 records from 1 files")
	})
}

func TestWatchFiles(t *testing.T) {
	file := writeFile(t, "export.csv", ledgerExport)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{file}, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)
	assert.NoError(t, os.WriteFile(file, []byte(ledgerExport+"\n"), 0644))

	select {
	case <-changed:
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	assert.NoError(t, <-done)
}
