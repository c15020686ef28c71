package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kioskled/ledupdater/internal/config"
	"github.com/kioskled/ledupdater/internal/led"
)

func TestPrintKiosks_TSV(t *testing.T) {
	var out bytes.Buffer
	printKiosks(&out, false, []led.Kiosk{
		{ID: "k1", StopID: "IT", DisplayName: "Illinois Terminal", SignAddress: "10.0.0.5"},
		{ID: "k2", StopID: "GRN4TH", DisplayName: "Green & 4th", SignAddress: "10.0.0.6:8080"},
	})

	want := "ID\tNAME\tSTOP\tSIGN\n" +
		"k1\tIllinois Terminal\tIT\t10.0.0.5\n" +
		"k2\tGreen & 4th\tGRN4TH\t10.0.0.6:8080\n"
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestPrintKiosks_Table(t *testing.T) {
	var out bytes.Buffer
	printKiosks(&out, true, []led.Kiosk{
		{ID: "k1", StopID: "IT", DisplayName: "Illinois Terminal", SignAddress: "10.0.0.5"},
	})

	s := out.String()
	for _, want := range []string{"ID", "NAME", "Illinois Terminal", "10.0.0.5", "╭"} {
		if !strings.Contains(s, want) {
			t.Errorf("table missing %q:\n%s", want, s)
		}
	}
}

func TestDirectoryConfig(t *testing.T) {
	opts := &config.Options{
		SanityProjectID:       "abc123",
		SanityDataset:         "production",
		SanityAPIVersion:      "v2021-10-21",
		SanityToken:           "secret",
		SanityUseCDN:          true,
		SanityDevelopmentOnly: true,
	}

	cfg := directoryConfig(opts)
	if cfg.ProjectID != "abc123" || cfg.Dataset != "production" || cfg.APIVersion != "v2021-10-21" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Token != "secret" || !cfg.UseCDN || !cfg.DevelopmentOnly {
		t.Errorf("config = %+v", cfg)
	}
}

func TestSignCmd_RequiresAddress(t *testing.T) {
	cmd := CreateSignCmd()
	cmd.SetArgs([]string{"--blank"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--address") {
		t.Errorf("Execute() error = %v, want missing address", err)
	}
}

func TestSignCmd_RejectsBrightnessOutOfRange(t *testing.T) {
	cmd := CreateSignCmd()
	cmd.SetArgs([]string{"--address", "10.0.0.5", "--brightness", "200"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "between") {
		t.Errorf("Execute() error = %v, want range error", err)
	}
}

func TestKiosksCmd_ValidatesDirectoryOptions(t *testing.T) {
	cmd := CreateKiosksCmd(func() *config.Options { return &config.Options{} })
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "sanity.project_id is required") {
		t.Errorf("Execute() error = %v", err)
	}
}
