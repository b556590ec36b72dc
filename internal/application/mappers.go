package application

import "github.com/storeops/picking-service/internal/domain"

// ToOrderSummaryDTO converts a domain Order to OrderSummaryDTO
func ToOrderSummaryDTO(order *domain.Order) OrderSummaryDTO {
	return OrderSummaryDTO{
		OrderNumber:    order.OrderNumber,
		Platform:       order.Platform,
		TrackingNumber: order.TrackingNumber,
		Status:         string(order.Status),
		ItemCount:      len(order.Items),
		FetchedAt:      order.FetchedAt,
	}
}

// ToOrderSummaryDTOs converts a slice of domain Orders to OrderSummaryDTOs
func ToOrderSummaryDTOs(orders []domain.Order) []OrderSummaryDTO {
	dtos := make([]OrderSummaryDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, ToOrderSummaryDTO(&orders[i]))
	}
	return dtos
}

// ToOrderDTO converts a domain Order to OrderDTO
func ToOrderDTO(order *domain.Order) *OrderDTO {
	if order == nil {
		return nil
	}

	items := make([]LineItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, LineItemDTO{
			LineID:      item.LineID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Barcode:     item.Barcode,
			RequiredQty: item.RequiredQty,
		})
	}

	return &OrderDTO{
		OrderNumber:    order.OrderNumber,
		Platform:       order.Platform,
		TrackingNumber: order.TrackingNumber,
		Status:         string(order.Status),
		Items:          items,
		FetchedAt:      order.FetchedAt,
	}
}

// ToSessionDTO converts a domain PickSession to SessionDTO
func ToSessionDTO(session *domain.PickSession) *SessionDTO {
	if session == nil {
		return nil
	}

	lines := make([]SessionLineDTO, 0, len(session.Items))
	for _, item := range session.Items {
		lines = append(lines, SessionLineDTO{
			LineID:      item.LineID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Barcode:     item.Barcode,
			RequiredQty: item.RequiredQty,
			ScannedQty:  session.ScannedCount(item.LineID),
		})
	}

	return &SessionDTO{
		SessionID:      session.SessionID,
		OrderNumber:    session.OrderNumber,
		Platform:       session.Platform,
		TrackingNumber: session.TrackingNumber,
		Status:         string(session.Status),
		Lines:          lines,
		Complete:       session.IsComplete(),
		Committed:      session.Committed(),
		Progress:       session.Progress(),
		OpenedAt:       session.OpenedAt,
	}
}

// ToScanResultDTO converts a domain ScanResult to ScanResultDTO
func ToScanResultDTO(result domain.ScanResult, complete bool) ScanResultDTO {
	dto := ScanResultDTO{
		Outcome:  string(result.Outcome),
		Barcode:  result.Barcode,
		Complete: complete,
	}
	if result.Outcome == domain.ScanAccepted {
		lineID := result.LineID
		newCount := result.NewCount
		dto.LineID = &lineID
		dto.NewCount = &newCount
	}
	return dto
}
