package policy

// Config holds the policy engine's defaults; every field is overridable
// from an operator-supplied YAML document (see LoadConfig).
type Config struct {
	SingleLimit          float64                  `yaml:"single_limit"`
	GroupLimit           float64                  `yaml:"group_limit"`
	PolicyBankLimit      float64                  `yaml:"policy_bank_limit"`
	RatingMultiplier     map[CreditRating]float64 `yaml:"rating_multiplier"`
	MaturityBands        map[MaturityBucket]Band  `yaml:"maturity_bands"`
	WarningThreshold     float64                  `yaml:"warning_threshold"`
	CriticalThreshold    float64                  `yaml:"critical_threshold"`
	MaturitySplitWeights map[MaturityBucket]float64 `yaml:"maturity_split_weights"`
}

// Band is a (min, max) target percentage band for a maturity bucket.
type Band struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DefaultConfig returns the spec's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		SingleLimit:     0.25,
		GroupLimit:      0.40,
		PolicyBankLimit: 0.30,
		RatingMultiplier: map[CreditRating]float64{
			RatingAAA:     1.00,
			RatingAAPlus:  0.90,
			RatingAA:      0.90,
			RatingAAMinus: 0.90,
			RatingAPlus:   0.70,
			RatingA:       0.70,
		},
		MaturityBands: map[MaturityBucket]Band{
			MaturityOvernight: {Min: 0.30, Max: 0.40},
			MaturityWithin7D:  {Min: 0.20, Max: 0.30},
			MaturityWithin1M:  {Min: 0.20, Max: 0.30},
			MaturityWithin3M:  {Min: 0.10, Max: 0.20},
		},
		WarningThreshold: 0.90,
		CriticalThreshold: 1.00,
		MaturitySplitWeights: map[MaturityBucket]float64{
			MaturityOvernight: 0.80,
			MaturityWithin7D:  0.10,
			MaturityWithin1M:  0.07,
			MaturityWithin3M:  0.03,
		},
	}
}

// ratingMultiplier returns the configured multiplier for rating, falling
// back to the most conservative value (0.50) for unknown or missing
// ratings — including NR.
func (c *Config) ratingMultiplier(rating CreditRating) float64 {
	if m, ok := c.RatingMultiplier[rating]; ok {
		return m
	}
	return 0.50
}
