// Package utils 提供标签等跨层公用的小工具。
package utils

// Label 是条目与用户上的可解释标记：Value 承载业务含义，
// Source 记录写入方（recall / rank / rerank / rule 等）便于追踪。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// MergeLabel 合并同名标签。默认策略是保留历史而不是覆盖：
// Value 以 '|' 累积，Source 以 ',' 累积；需要覆盖语义的调用方自行处理。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
