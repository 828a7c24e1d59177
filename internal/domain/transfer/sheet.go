package transfer

import (
	"fmt"
	"strconv"
	"strings"

	"salescrm/internal/domain/lead"
)

const (
	SheetName   = "客户数据"
	PoolOwner   = "公海"
	CellLayout  = "2006-01-02 15:04:05"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header is the column layout shared by export and import.
var Header = []string{
	"姓名", "电话", "状态", "负责人", "线索渠道", "自动定位城市",
	"手动填写地域", "沟通次数", "下次联系时间", "线索创建时间", "备注信息",
}

const (
	colName = iota
	colPhone
	colStatus
	colOwner
	colSource
	colCity
	colRegion
	colContactCount
	colNextContact
	colCreatedAt
	colNote
)

type Kind string

const (
	KindAll    Kind = "all"
	KindSigned Kind = "signed"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.TrimSpace(s)) {
	case "", KindAll:
		return KindAll, nil
	case KindSigned:
		return KindSigned, nil
	}
	return "", ErrInvalidKind
}

func (k Kind) Filename() string {
	if k == KindSigned {
		return "已签约客户.xlsx"
	}
	return "全部客户.xlsx"
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rowFromCells maps a sheet row onto the batch row shape. The owner column is ignored.
func rowFromCells(cells []string) (lead.BatchRow, error) {
	row := lead.BatchRow{
		Name:            cell(cells, colName),
		Phone:           cell(cells, colPhone),
		Status:          cell(cells, colStatus),
		Source:          cell(cells, colSource),
		CityAuto:        cell(cells, colCity),
		RegionManual:    cell(cells, colRegion),
		NextContactTime: cell(cells, colNextContact),
		CreatedAt:       cell(cells, colCreatedAt),
		Note:            cell(cells, colNote),
	}
	if v := cell(cells, colContactCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return row, fmt.Errorf("contact count %q is not a number", v)
		}
		row.ContactCount = n
	}
	return row, nil
}
