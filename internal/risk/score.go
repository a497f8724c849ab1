package risk

import (
	"github.com/kwon-project/compliance-backplane/internal/institution"
	"github.com/kwon-project/compliance-backplane/internal/policy"
)

// subScoreWeights are the fixed weights the five sub-scores are combined
// with to produce FSS.
var subScoreWeights = map[string]float64{
	"rating":  0.35,
	"lcr":     0.20,
	"insured": 0.15,
	"spread":  0.20,
	"news":    0.10,
}

// BankRiskScore computes a 0-100 FSS for in, where higher is safer.
// Custody agents are excluded with a sentinel score of 0 and a reason.
func BankRiskScore(in ScoreInputs) Score {
	if institution.IsCustodyAgent(in.InstitutionType) {
		return Score{BankID: in.BankID, FSS: 0, Excluded: true, Reason: "custody agent excluded from risk scoring"}
	}

	sub := map[string]float64{
		"rating":  ratingSubScore(in.CreditRating),
		"lcr":     lcrSubScore(in.LCRPercent),
		"insured": insuredSubScore(in.DepositInsured),
		"spread":  spreadSubScore(in.CDSSpreadBps),
		"news":    newsSubScore(in.NewsSentiment),
	}

	var fss float64
	for key, weight := range subScoreWeights {
		fss += sub[key] * weight
	}

	return Score{BankID: in.BankID, FSS: fss, Sub: sub}
}

func ratingSubScore(rating policy.CreditRating) float64 {
	switch rating {
	case policy.RatingAAA:
		return 100
	case policy.RatingAAPlus, policy.RatingAA, policy.RatingAAMinus:
		return 90
	case policy.RatingAPlus, policy.RatingA:
		return 70
	default:
		return 50
	}
}

func lcrSubScore(lcr float64) float64 {
	switch {
	case lcr >= 120:
		return 95
	case lcr >= 100:
		return 85
	case lcr >= 80:
		return 70
	default:
		return 50
	}
}

func insuredSubScore(insured bool) float64 {
	if insured {
		return 100
	}
	return 40
}

func spreadSubScore(bps float64) float64 {
	switch {
	case bps <= 30:
		return 95
	case bps <= 75:
		return 80
	case bps <= 150:
		return 60
	default:
		return 30
	}
}

func newsSubScore(sentiment float64) float64 {
	switch {
	case sentiment >= 0.5:
		return 95
	case sentiment >= 0:
		return 75
	case sentiment >= -0.5:
		return 50
	default:
		return 20
	}
}
