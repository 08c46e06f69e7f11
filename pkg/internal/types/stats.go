package types

// StatsResponse 存储用量统计；所有数值由服务端计算，字节为单位.
type StatsResponse struct {
	TotalFiles   int64   `json:"total_files"`
	TotalFolders int64   `json:"total_folders"`
	UsedSpace    int64   `json:"used_space"`
	Quota        int64   `json:"quota"`
	UsagePercent float64 `json:"usage_percent"`
}

// SetQuotaRequest 管理员调整配额请求.
type SetQuotaRequest struct {
	QuotaBytes int64 `binding:"required" json:"quota_bytes" rule:"min=0"`
}
