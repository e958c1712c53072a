package policy

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

const policyEnv = "SCHOOL_POLICY_YAML"

//go:embed policy.yaml
var policyFS embed.FS

// Policy holds the school's tunable business settings.
type Policy struct {
	Version     int                     `yaml:"version"`
	Certificate CertificatePolicy       `yaml:"certificate"`
	Payroll     PayrollPolicy           `yaml:"payroll"`
	Requisition RequisitionPolicy       `yaml:"requisition"`
	Grading     GradingPolicy           `yaml:"grading"`
	Utilization school.UtilizationBands `yaml:"utilization"`
}

type CertificatePolicy struct {
	Prefix   string  `yaml:"prefix"`
	FontSize float64 `yaml:"font_size"`
}

type PayrollPolicy struct {
	DefaultTaxRate float64 `yaml:"default_tax_rate"`
}

type RequisitionPolicy struct {
	Prefix string `yaml:"prefix"`
}

type GradingPolicy struct {
	Scale []school.GradeBand `yaml:"scale"`
}

// TaxRate is DefaultTaxRate as a two-place decimal.
func (p PayrollPolicy) TaxRate() decimal.Decimal {
	return decimal.NewFromFloat(p.DefaultTaxRate).Round(2)
}

// Defaults mirror policy.yaml and are used when it cannot be loaded.
func Defaults() Policy {
	scale := make([]school.GradeBand, len(school.DefaultGradingScale))
	copy(scale, school.DefaultGradingScale)
	return Policy{
		Version:     1,
		Certificate: CertificatePolicy{Prefix: school.DefaultCertificatePrefix, FontSize: 42},
		Payroll:     PayrollPolicy{DefaultTaxRate: 10},
		Requisition: RequisitionPolicy{Prefix: "RQ"},
		Grading:     GradingPolicy{Scale: scale},
		Utilization: school.DefaultUtilizationBands,
	}
}

// Load reads SCHOOL_POLICY_YAML when set, otherwise the embedded file.
// Any read or validation failure logs a warning and returns Defaults.
func Load(log *logger.Logger) Policy {
	p, err := load()
	if err != nil {
		if log != nil {
			log.Warn("school policy load failed; using defaults", "error", err)
		}
		return Defaults()
	}
	return p
}

func load() (Policy, error) {
	data, err := read()
	if err != nil {
		return Policy{}, err
	}
	return Parse(data)
}

func read() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(policyEnv)); path != "" {
		return os.ReadFile(path)
	}
	return policyFS.ReadFile("policy.yaml")
}

// Parse decodes and validates a policy document. Missing sections take the
// default values.
func Parse(data []byte) (Policy, error) {
	p := Defaults()
	p.Grading.Scale = nil
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if len(p.Grading.Scale) == 0 {
		p.Grading.Scale = Defaults().Grading.Scale
	}
	p.Certificate.Prefix = strings.ToUpper(strings.TrimSpace(p.Certificate.Prefix))
	p.Requisition.Prefix = strings.ToUpper(strings.TrimSpace(p.Requisition.Prefix))
	sort.SliceStable(p.Grading.Scale, func(i, j int) bool {
		return p.Grading.Scale[i].MinPercent > p.Grading.Scale[j].MinPercent
	})
	if err := validate(p); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func validate(p Policy) error {
	var errs []error
	if p.Certificate.Prefix == "" {
		errs = append(errs, errors.New("certificate.prefix is required"))
	}
	if p.Requisition.Prefix == "" {
		errs = append(errs, errors.New("requisition.prefix is required"))
	}
	if p.Payroll.DefaultTaxRate < 0 || p.Payroll.DefaultTaxRate > 100 {
		errs = append(errs, fmt.Errorf("payroll.default_tax_rate %.2f must be between 0 and 100", p.Payroll.DefaultTaxRate))
	}
	if p.Utilization.Under < 0 || p.Utilization.Over > 200 || p.Utilization.Under >= p.Utilization.Over {
		errs = append(errs, fmt.Errorf("utilization bands under=%.1f over=%.1f are inconsistent", p.Utilization.Under, p.Utilization.Over))
	}
	scale := p.Grading.Scale
	if last := scale[len(scale)-1]; last.MinPercent != 0 {
		errs = append(errs, fmt.Errorf("grading scale must end with a 0%% band, got %s at %.1f", last.Letter, last.MinPercent))
	}
	seen := map[string]bool{}
	for _, b := range scale {
		if strings.TrimSpace(b.Letter) == "" {
			errs = append(errs, errors.New("grading band letter is required"))
		}
		if seen[b.Letter] {
			errs = append(errs, fmt.Errorf("grading band %q is listed twice", b.Letter))
		}
		seen[b.Letter] = true
	}
	return errors.Join(errs...)
}
