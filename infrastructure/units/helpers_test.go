package units

import "github.com/ahrav/go-polindex/internal/domain"

// paragraph builds a classified paragraph. labels alternates label names and
// confidences: paragraph(0.3, 0.7, "Economy", 0.6, "Welfare", 0.4).
func paragraph(right, left float64, labels ...any) domain.ParagraphRecord {
	var predictions []domain.DomainPrediction
	for i := 0; i+1 < len(labels); i += 2 {
		predictions = append(predictions, domain.DomainPrediction{
			Label:      labels[i].(string),
			Prediction: labels[i+1].(float64),
		})
	}
	return domain.ParagraphRecord{FIPI: &domain.Classification{
		Domain: predictions,
		LeftRight: []domain.PositionPrediction{
			{Prediction: right},
			{Prediction: left},
		},
	}}
}

// twoPolicyCorpus has one party whose first paragraph touches Economy and
// Welfare and whose second touches Economy only.
func twoPolicyCorpus() domain.Corpus {
	return domain.Corpus{
		"A": {
			paragraph(0.3, 0.7, "Economy", 0.6, "Welfare", 0.4),
			paragraph(0.5, 0.5, "Economy", 0.4),
		},
	}
}
