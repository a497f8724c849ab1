package policy

import "github.com/kwon-project/compliance-backplane/internal/institution"

// Normalize applies preprocessing before any check runs:
//  1. institution type is inferred from name/id when not already set,
//  2. custody_agent exposures are dropped entirely,
//  3. exposures with an unknown or OVERNIGHT bucket are split across all
//     configured buckets using the fixed weight table.
func Normalize(cfg *Config, exposures []BankExposure) []BankExposure {
	var out []BankExposure

	for _, e := range exposures {
		if e.InstitutionType == "" {
			e.InstitutionType = institution.DetectType(coalesce(e.Name, e.BankID))
		}
		if institution.IsCustodyAgent(e.InstitutionType) {
			continue
		}

		if e.MaturityBucket == MaturityOvernight || e.MaturityBucket == "" {
			out = append(out, splitAcrossBuckets(cfg, e)...)
			continue
		}

		out = append(out, e)
	}

	return out
}

func splitAcrossBuckets(cfg *Config, e BankExposure) []BankExposure {
	var fragments []BankExposure
	for bucket, weight := range cfg.MaturitySplitWeights {
		if weight <= 0 {
			continue
		}
		frag := e
		frag.MaturityBucket = bucket
		frag.Exposure = e.Exposure * weight
		fragments = append(fragments, frag)
	}
	return fragments
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
