package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var exportTracer = otel.Tracer("service/export")

// XLSXContentType is the media type of the generated spreadsheets.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheet describes one exported worksheet.
type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// ExportService renders admin listings as spreadsheets.
type ExportService struct {
	visitors     *VisitorService
	reservations *ReservationService
	shop         *ShopService
	logger       *zap.Logger
}

func NewExportService(visitors *VisitorService, reservations *ReservationService, shop *ShopService, logger *zap.Logger) *ExportService {
	return &ExportService{visitors: visitors, reservations: reservations, shop: shop, logger: logger}
}

func (s *ExportService) Visitors(ctx context.Context) ([]byte, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.Visitors")
	defer span.End()

	entries, err := s.visitors.Registry(ctx)
	if err != nil {
		return nil, err
	}
	sh := sheet{
		name:    "Visitantes",
		headers: []string{"Nome", "E-mail", "CPF", "Telefone", "Sócio responsável", "Aprovado", "Reservas", "Último check-in", "Último status", "Cadastro"},
		widths:  []float64{30, 30, 18, 18, 30, 10, 10, 16, 14, 20},
	}
	for _, e := range entries {
		sh.rows = append(sh.rows, []any{
			e.FullName, e.Email, e.CPF, e.Phone, e.HostName, yesNo(e.Approved),
			e.Reservations, e.LastCheckIn, e.LastStatus, e.RegisteredAt.Format("2006-01-02 15:04"),
		})
	}
	return s.render(sh)
}

func (s *ExportService) Reservations(ctx context.Context) ([]byte, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.Reservations")
	defer span.End()

	all, err := s.reservations.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sh := sheet{
		name:    "Reservas",
		headers: []string{"Sócio", "Entrada", "Saída", "Hóspedes", "Acomodação", "Status", "Observações", "Observações da administração", "Criada em"},
		widths:  []float64{30, 12, 12, 10, 20, 12, 40, 40, 20},
	}
	for _, r := range all {
		sh.rows = append(sh.rows, []any{
			r.FullName, r.CheckIn, r.CheckOut, r.NumGuests, r.Accommodation, r.Status,
			r.Notes, r.AdminNotes, r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return s.render(sh)
}

// Orders writes one row per order item; the order columns repeat on each item row.
func (s *ExportService) Orders(ctx context.Context) ([]byte, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.Orders")
	defer span.End()

	orders, err := s.shop.ListAllOrders(ctx)
	if err != nil {
		return nil, err
	}
	sh := sheet{
		name:    "Pedidos",
		headers: []string{"Pedido", "Sócio", "Retirada", "Status", "Produto", "Quantidade", "Preço unitário", "Subtotal", "Total do pedido"},
		widths:  []float64{38, 30, 12, 12, 30, 12, 14, 12, 16},
	}
	for _, o := range orders {
		if len(o.Items) == 0 {
			sh.rows = append(sh.rows, []any{o.ID, o.FullName, o.PickupDate, o.Status, "", "", "", "", o.TotalPrice})
			continue
		}
		for _, it := range o.Items {
			sh.rows = append(sh.rows, []any{
				o.ID, o.FullName, o.PickupDate, o.Status, it.ProductName,
				it.Quantity, it.UnitPrice, it.Subtotal(), o.TotalPrice,
			})
		}
	}
	return s.render(sh)
}

func (s *ExportService) render(sh sheet) ([]byte, error) {
	out, err := renderSheet(sh)
	if err != nil {
		s.logger.Error("xlsx export failed", zap.String("sheet", sh.name), zap.Error(err))
		return nil, &domain.ErrOperation{Message: "Erro ao gerar planilha", Err: err}
	}
	s.logger.Info("xlsx exported", zap.String("sheet", sh.name), zap.Int("rows", len(sh.rows)))
	return out, nil
}

func renderSheet(sh sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sh.name)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, h := range sh.headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sh.name, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sh.name, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		if i < len(sh.widths) {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(sh.name, col, col, sh.widths[i]); err != nil {
				return nil, fmt.Errorf("column width: %w", err)
			}
		}
	}

	for r, row := range sh.rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.SetPanes(sh.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFileName is the download name for an export, e.g. "visitantes-2024-05-01.xlsx".
func ExportFileName(kind, day string) string {
	return fmt.Sprintf("%s-%s.xlsx", strings.ToLower(kind), day)
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
