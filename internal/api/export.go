package api

import (
	"fmt"

	"github.com/xuri/excelize/v2" // Для генерации Excel / For Excel generation

	"mycase/internal/formatters"
	"mycase/internal/models"
)

const ordersSheetName = "Заказы"

// buildOrdersWorkbook строит книгу Excel со всеми заказами (одна строка на заказ).
// buildOrdersWorkbook builds an Excel workbook with one row per order.
func buildOrdersWorkbook(orders []models.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(ordersSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ошибка создания листа: %w", err)
	}
	f.DeleteSheet("Sheet1") // Удаляем стандартный лист / Delete default sheet
	f.SetActiveSheet(index)

	headers := []string{"ID Заказа", "Дата", "Тип", "Клиент", "Телефон", "Адрес", "Бренд", "Модель", "Дизайн", "Надпись", "Комментарий", "Статус", "Telegram ID"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(ordersSheetName, cell, header)
	}

	for i, o := range orders {
		row := i + 2
		f.SetCellValue(ordersSheetName, fmt.Sprintf("A%d", row), o.ID)
		f.SetCellValue(ordersSheetName, fmt.Sprintf("B%d", row), o.CreatedAt.Format("02.01.2006 15:04"))
		f.SetCellValue(ordersSheetName, fmt.Sprintf("C%d", row), formatters.KindDisplay(o.Kind))
		f.SetCellValue(ordersSheetName, fmt.Sprintf("D%d", row), o.CustomerName)
		f.SetCellValue(ordersSheetName, fmt.Sprintf("E%d", row), o.PhoneNumber)
		f.SetCellValue(ordersSheetName, fmt.Sprintf("F%d", row), o.Address)
		f.SetCellValue(ordersSheetName, fmt.Sprintf("G%d", row), o.Brand)
		f.SetCellValue(ordersSheetName, fmt.Sprintf("H%d", row), o.PhoneModel)
		if o.DesignURL.Valid {
			f.SetCellValue(ordersSheetName, fmt.Sprintf("I%d", row), o.DesignURL.String)
		} else if o.AttachmentRef.Valid {
			f.SetCellValue(ordersSheetName, fmt.Sprintf("I%d", row), o.AttachmentRef.String)
		}
		if o.PersonalText.Valid {
			f.SetCellValue(ordersSheetName, fmt.Sprintf("J%d", row), o.PersonalText.String)
		}
		if o.Comment.Valid {
			f.SetCellValue(ordersSheetName, fmt.Sprintf("K%d", row), o.Comment.String)
		}
		f.SetCellValue(ordersSheetName, fmt.Sprintf("L%d", row), o.Status)
		if o.UserID.Valid {
			f.SetCellValue(ordersSheetName, fmt.Sprintf("M%d", row), o.UserID.Int64)
		}
	}
	return f, nil
}
