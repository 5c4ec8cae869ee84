package parser

import (
	"strings"

	"optia/internal/model"
)

// Build turns raw data rows into normalized dossier records using the
// inferred mapping. Rows that are entirely empty, or whose mapped client
// cell is blank after trimming, are dropped: a dossier without a client name
// is not auditable. Row count in equals record count plus dropped rows.
func Build(rows [][]string, mapping ColumnMapping) []model.DossierRecord {
	records := make([]model.DossierRecord, 0, len(rows))

	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		client := strings.TrimSpace(cell(row, mapping, KeyClient))
		if client == "" {
			continue
		}

		rec := model.DossierRecord{
			OriginalIndex: len(records),
			Client:        client,
			Advisor:       strings.TrimSpace(cell(row, mapping, KeyAdvisor)),
			Assistant:     strings.TrimSpace(cell(row, mapping, KeyAssistant)),
			Domain:        strings.TrimSpace(cell(row, mapping, KeyDomain)),
			Supplier:      strings.TrimSpace(cell(row, mapping, KeySupplier)),
			Contract:      strings.TrimSpace(cell(row, mapping, KeyContract)),
			Reference:     strings.TrimSpace(cell(row, mapping, KeyReference)),
			ActType:       strings.TrimSpace(cell(row, mapping, KeyActType)),
			Status:        strings.TrimSpace(cell(row, mapping, KeyStatus)),
			CaseCode:      strings.TrimSpace(cell(row, mapping, KeyCaseCode)),
			PEP:           strings.TrimSpace(cell(row, mapping, KeyPEP)),
			NewClient:     strings.TrimSpace(cell(row, mapping, KeyNewClient)),
			Raw:           row,
		}

		rec.Amount = strings.TrimSpace(cell(row, mapping, KeyAmount))
		// The numeric value drives eligibility filtering; the formatted
		// text stays untouched for display. Unparseable amounts count as 0.
		rec.AmountValue, _ = ExtractAmount(rec.Amount)

		rec.EntryDate = ParseDate(cell(row, mapping, KeyEntryDate))
		rec.SendDate = ParseDate(cell(row, mapping, KeySendDate))
		rec.ValidationDate = ParseDate(cell(row, mapping, KeyValidationDate))
		rec.SignatureDate = ParseDate(cell(row, mapping, KeySignatureDate))

		records = append(records, rec)
	}

	return records
}

func cell(row []string, mapping ColumnMapping, key FieldKey) string {
	idx := mapping.Column(key)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
