package xmlstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/takotakot/xml_echo/common"
)

const (
	StatusOK              = "ok"
	StatusMalformed       = "malformed"
	StatusUnexpectedRoot  = "unexpected_root"
	StatusMissingFragment = "missing_fragment"
	StatusFailed          = "failed"
)

// AuditRecord is one row of the audit table. DestURI and ErrorMessage are
// empty when not applicable.
type AuditRecord struct {
	RunID        string
	SourceURI    string
	DestURI      string
	Status       string
	ErrorMessage string
}

// ConstructAuditQuery builds the DML statement inserting one AuditRecord. The
// table is created on first use.
func ConstructAuditQuery(datasetId string, tableId string) string {
	schema := `run_id STRING NOT NULL,
	source_uri STRING NOT NULL,
	dest_uri STRING,
	status STRING NOT NULL,
	error_message STRING,
	processed_at TIMESTAMP NOT NULL`

	return fmt.Sprintf(`BEGIN
	CREATE TABLE IF NOT EXISTS `+"`%s.%s`"+`
	(
	%s
	);

	INSERT INTO `+"`%s.%s`"+`(run_id, source_uri, dest_uri, status, error_message, processed_at)
	VALUES (@run_id, @source_uri, NULLIF(@dest_uri, ''), @status, NULLIF(@error_message, ''), CURRENT_TIMESTAMP());
END
`, datasetId, tableId, schema, datasetId, tableId)
}

func (r AuditRecord) parameters() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "run_id", Value: r.RunID},
		{Name: "source_uri", Value: r.SourceURI},
		{Name: "dest_uri", Value: r.DestURI},
		{Name: "status", Value: r.Status},
		{Name: "error_message", Value: r.ErrorMessage},
	}
}

func RecordAudit(ctx context.Context, client common.BigQueryClient, datasetId string, tableId string, record AuditRecord) error {
	if err := common.RunQuery(ctx, client, ConstructAuditQuery(datasetId, tableId), record.parameters()); err != nil {
		return fmt.Errorf("RecordAudit: %w", err)
	}
	return nil
}
