package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"japanoil-catalog/internal/observability"
	"japanoil-catalog/internal/storage"
)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

// UpsertProduct сохраняет или обновляет товар. Строка с тем же CheckSum не
// обновляется, MERGE тогда ничего не выводит.
func (r *Repository) UpsertProduct(ctx context.Context, rec *storage.ProductRecord) (storage.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		MERGE INTO TblProducts AS target
		USING (SELECT @SKU AS SKU) AS source
		ON target.[SKU] = source.SKU
		WHEN MATCHED AND target.[CheckSum] <> @CheckSum THEN
			UPDATE SET
				[CatalogID] = @CatalogID,
				[Title] = @Title,
				[ShortDescription] = @ShortDescription,
				[Description] = @Description,
				[ImageURL] = @ImageURL,
				[TDSURL] = @TDSURL,
				[MSDSURL] = @MSDSURL,
				[SourceURL] = @SourceURL,
				[CheckSum] = @CheckSum,
				[UpdatedAt] = SYSUTCDATETIME()
		WHEN NOT MATCHED THEN
			INSERT ([SKU], [CatalogID], [Title], [ShortDescription], [Description], [ImageURL], [TDSURL], [MSDSURL], [SourceURL], [CheckSum], [UpdatedAt])
			VALUES (@SKU, @CatalogID, @Title, @ShortDescription, @Description, @ImageURL, @TDSURL, @MSDSURL, @SourceURL, @CheckSum, SYSUTCDATETIME())
		OUTPUT $action;
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var action string
	err = stmt.QueryRowContext(ctx,
		sql.Named("SKU", rec.SKU),
		sql.Named("CatalogID", rec.CatalogID),
		sql.Named("Title", rec.Title),
		sql.Named("ShortDescription", rec.ShortDescription),
		sql.Named("Description", rec.Description),
		sql.Named("ImageURL", rec.ImageURL),
		sql.Named("TDSURL", rec.TDSFormPDFURL),
		sql.Named("MSDSURL", rec.MSDSFormPDFURL),
		sql.Named("SourceURL", rec.SourceURL),
		sql.Named("CheckSum", rec.CheckSum),
	).Scan(&action)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.OutcomeUnchanged, nil
		}
		return "", fmt.Errorf("failed to execute upsert: %w", err)
	}

	return outcomeFromAction(action), nil
}

func outcomeFromAction(action string) storage.Outcome {
	switch action {
	case "INSERT":
		return storage.OutcomeInserted
	case "UPDATE":
		return storage.OutcomeUpdated
	default:
		return storage.OutcomeUnchanged
	}
}

// GetProductCount получает количество товаров в каталоге
func (r *Repository) GetProductCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM TblProducts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}

	return count, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
