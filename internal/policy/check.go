package policy

import "fmt"

// severityFor maps a ratio (share/limit) to a Severity using the
// configured warning/critical thresholds.
func severityFor(cfg *Config, ratio float64) Severity {
	switch {
	case ratio >= cfg.CriticalThreshold:
		return SeverityCritical
	case ratio >= cfg.WarningThreshold:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// CheckCompliance runs every configured check over exposures and returns
// the aggregate report. Exposures are normalized (institution typing,
// custody-agent exclusion, maturity auto-split) before evaluation.
func CheckCompliance(cfg *Config, exposures []BankExposure) Report {
	normalized := Normalize(cfg, exposures)

	total := sumExposure(normalized)

	var violations []Violation
	if total > 0 {
		violations = append(violations, checkSingleInstitution(cfg, normalized, total)...)
		violations = append(violations, checkGroupLimit(cfg, normalized, total)...)
		violations = append(violations, checkRatingAdjusted(cfg, normalized, total)...)
		violations = append(violations, checkMaturityDistribution(cfg, normalized, total)...)
	}

	return buildReport(violations)
}

func sumExposure(exposures []BankExposure) float64 {
	var total float64
	for _, e := range exposures {
		total += e.Exposure
	}
	return total
}

func checkSingleInstitution(cfg *Config, exposures []BankExposure, total float64) []Violation {
	byBank := map[string]float64{}
	byBankName := map[string]string{}
	policyFlag := map[string]bool{}

	for _, e := range exposures {
		byBank[e.BankID] += e.Exposure
		byBankName[e.BankID] = e.Name
		if e.IsPolicyBank {
			policyFlag[e.BankID] = true
		}
	}

	var violations []Violation
	for bankID, exposure := range byBank {
		share := exposure / total
		limit := cfg.SingleLimit
		if policyFlag[bankID] {
			limit = cfg.PolicyBankLimit
		}

		ratio := share / limit
		sev := severityFor(cfg, ratio)
		if sev == SeverityOK {
			continue
		}

		violations = append(violations, Violation{
			Type:     ViolationExposureLimit,
			Severity: sev,
			Code:     "SINGLE_LIMIT",
			Message:  fmt.Sprintf("%s exposure share %.4f exceeds limit %.4f", byBankName[bankID], share, limit),
			Details: map[string]interface{}{
				"bank_id":       bankID,
				"current_pct":   share,
				"limit":         limit,
				"ratio":         ratio,
				"excess_amount": (share - limit) * total,
			},
		})
	}
	return violations
}

func checkGroupLimit(cfg *Config, exposures []BankExposure, total float64) []Violation {
	byGroup := map[string]float64{}
	for _, e := range exposures {
		if e.GroupID == "" {
			continue
		}
		byGroup[e.GroupID] += e.Exposure
	}

	var violations []Violation
	for groupID, exposure := range byGroup {
		share := exposure / total
		ratio := share / cfg.GroupLimit
		sev := severityFor(cfg, ratio)
		if sev == SeverityOK {
			continue
		}

		violations = append(violations, Violation{
			Type:     ViolationExposureLimit,
			Severity: sev,
			Code:     "GROUP_LIMIT",
			Message:  fmt.Sprintf("group %s exposure share %.4f exceeds limit %.4f", groupID, share, cfg.GroupLimit),
			Details: map[string]interface{}{
				"group_id":      groupID,
				"current_pct":   share,
				"limit":         cfg.GroupLimit,
				"ratio":         ratio,
				"excess_amount": (share - cfg.GroupLimit) * total,
			},
		})
	}
	return violations
}

func checkRatingAdjusted(cfg *Config, exposures []BankExposure, total float64) []Violation {
	var violations []Violation
	for _, e := range exposures {
		share := e.Exposure / total
		multiplier := cfg.ratingMultiplier(e.CreditRating)
		limit := cfg.SingleLimit * multiplier
		if limit <= 0 {
			continue
		}

		ratio := share / limit
		sev := severityFor(cfg, ratio)
		if sev == SeverityOK {
			continue
		}

		violations = append(violations, Violation{
			Type:     ViolationCreditRatingLimit,
			Severity: sev,
			Code:     "RATING_ADJUSTED_LIMIT",
			Message:  fmt.Sprintf("%s exposure share %.4f exceeds rating-adjusted limit %.4f", e.Name, share, limit),
			Details: map[string]interface{}{
				"bank_id":       e.BankID,
				"credit_rating": e.CreditRating,
				"multiplier":    multiplier,
				"current_pct":   share,
				"limit":         limit,
				"ratio":         ratio,
				"excess_amount": (share - limit) * total,
			},
		})
	}
	return violations
}

func checkMaturityDistribution(cfg *Config, exposures []BankExposure, total float64) []Violation {
	byBucket := map[MaturityBucket]float64{}
	for _, e := range exposures {
		byBucket[e.MaturityBucket] += e.Exposure
	}

	var violations []Violation
	for bucket, band := range cfg.MaturityBands {
		share := byBucket[bucket] / total

		if share > band.Max {
			ratio := share / band.Max
			violations = append(violations, Violation{
				Type:     ViolationMaturityDist,
				Severity: severityFor(cfg, ratio),
				Code:     "MATURITY_OVER",
				Message:  fmt.Sprintf("maturity bucket %s share %.4f exceeds max %.4f", bucket, share, band.Max),
				Details: map[string]interface{}{
					"bucket":      bucket,
					"current_pct": share,
					"max_pct":     band.Max,
					"ratio":       ratio,
					"direction":   "OVER",
				},
			})
			continue
		}

		if share < band.Min {
			ratio := share / band.Min
			sev := SeverityWarning
			if share < band.Min*cfg.WarningThreshold {
				sev = SeverityCritical
			}
			violations = append(violations, Violation{
				Type:     ViolationMaturityDist,
				Severity: sev,
				Code:     "MATURITY_UNDER",
				Message:  fmt.Sprintf("maturity bucket %s share %.4f below min %.4f", bucket, share, band.Min),
				Details: map[string]interface{}{
					"bucket":      bucket,
					"current_pct": share,
					"min_pct":     band.Min,
					"ratio":       ratio,
					"direction":   "UNDER",
				},
			})
		}
	}
	return violations
}

func buildReport(violations []Violation) Report {
	summary := ReportSummary{
		ByType:  map[ViolationType]int{},
		ByLevel: map[Severity]int{},
	}

	highest := SeverityOK
	for _, v := range violations {
		summary.ByType[v.Type]++
		summary.ByLevel[v.Severity]++
		if severityRank(v.Severity) > severityRank(highest) {
			highest = v.Severity
		}
	}

	if violations == nil {
		violations = []Violation{}
	}

	return Report{
		Violations:   violations,
		HighestLevel: highest,
		Summary:      summary,
	}
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}
