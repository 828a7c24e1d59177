package transfer

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"salescrm/internal/database"
	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
)

type fixture struct {
	db    *gorm.DB
	leads *lead.Service
	svc   *Service
	loc   *time.Location
	admin user.Actor
	alice user.Actor
	bob   user.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:transfer_test_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &user.User{}, &lead.Lead{}))

	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	users := user.NewRepository(db)
	leads := lead.NewService(lead.NewRepository(db), user.NewService(users, nil, 0), nil, loc, zerolog.Nop())
	f := &fixture{db: db, leads: leads, svc: NewService(leads, zerolog.Nop()), loc: loc}

	add := func(name string, admin bool) user.Actor {
		u := &user.User{Username: name, PasswordHash: "x", IsStaff: true, IsSuperuser: admin, IsActive: true}
		require.NoError(t, users.Create(context.Background(), u))
		return u.Actor()
	}
	f.admin = add("admin", true)
	f.alice = add("alice", false)
	f.bob = add("bob", false)
	return f
}

func (f *fixture) byPhone(t *testing.T, phone string) lead.Lead {
	t.Helper()
	var l lead.Lead
	require.NoError(t, f.db.Where("phone = ?", phone).First(&l).Error)
	return l
}

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", addr, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func readSheet(t *testing.T, f *excelize.File) map[string][]string {
	t.Helper()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, Header, rows[0])

	byPhone := make(map[string][]string, len(rows)-1)
	for _, r := range rows[1:] {
		byPhone[r[colPhone]] = r
	}
	return byPhone
}

func TestExport_AllAndSigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	next := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)
	_, err := f.leads.Create(ctx, f.alice, lead.LeadInput{
		Name:            "张三",
		Phone:           "13900000001",
		Source:          "抖音",
		NextContactTime: &next,
		ExtraData:       lead.Extra{lead.NoteKey: lead.Text("重要客户")},
	})
	require.NoError(t, err)
	_, err = f.leads.Create(ctx, f.admin, lead.LeadInput{Name: "李四", Phone: "13900000002", Status: lead.StatusSigned})
	require.NoError(t, err)

	wb, err := f.svc.Export(ctx, f.admin, KindAll)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{SheetName}, wb.GetSheetList())

	rows := readSheet(t, wb)
	require.Len(t, rows, 2)

	owned := rows["13900000001"]
	assert.Equal(t, "张三", owned[colName])
	assert.Equal(t, "待沟通", owned[colStatus])
	assert.Equal(t, "alice", owned[colOwner])
	assert.Equal(t, "抖音", owned[colSource])
	assert.Equal(t, "0", owned[colContactCount])
	assert.Equal(t, "2026-03-02 10:00:00", owned[colNextContact])
	assert.Equal(t, "重要客户", owned[colNote])

	pooled := rows["13900000002"]
	assert.Equal(t, PoolOwner, pooled[colOwner])
	assert.Equal(t, "已签约", pooled[colStatus])

	signed, err := f.svc.Export(ctx, f.admin, KindSigned)
	require.NoError(t, err)
	defer signed.Close()
	rows = readSheet(t, signed)
	require.Len(t, rows, 1)
	assert.Contains(t, rows, "13900000002")
}

func TestExport_AdminOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Export(context.Background(), f.alice, KindAll)
	assert.ErrorIs(t, err, lead.ErrForbidden)
}

func TestImport_RepTakesRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bobID := f.bob.ID
	_, err := f.leads.Create(ctx, f.admin, lead.LeadInput{Name: "老客户", Phone: "13900000002", SalesRepID: &bobID})
	require.NoError(t, err)

	buf := workbook(t,
		[]any{"新客户", "13900000001", "待跟进", "bob", "抖音", "上海", "浦东", 2, "2026-03-02 10:00:00", "2026-02-01 09:00:00", "重要"},
		[]any{"改名", "13900000002"},
		[]any{"没有电话", ""},
		[]any{"坏状态", "13900000003", "whatever"},
		[]any{"坏次数", "13900000004", "", "", "", "", "", "abc"},
	)

	res, err := f.svc.Import(ctx, f.alice, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "row 5")
	assert.Contains(t, res.Errors[1], "row 6")

	created := f.byPhone(t, "13900000001")
	require.NotNil(t, created.SalesRepID)
	assert.Equal(t, f.alice.ID, *created.SalesRepID)
	assert.Equal(t, lead.StatusWaitFollowup, created.Status)
	assert.Equal(t, "上海", created.CityAuto)
	assert.Equal(t, "浦东", created.RegionManual)
	assert.Equal(t, 2, created.ContactCount)
	require.NotNil(t, created.NextContactTime)
	assert.True(t, created.NextContactTime.Equal(time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)))
	assert.True(t, created.CreatedAt.Equal(time.Date(2026, 2, 1, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, "重要", created.Extra.Note())

	existing := f.byPhone(t, "13900000002")
	assert.Equal(t, "老客户", existing.Name)
	require.NotNil(t, existing.SalesRepID)
	assert.Equal(t, f.alice.ID, *existing.SalesRepID)

	var count int64
	require.NoError(t, f.db.Model(&lead.Lead{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestImport_ExistingPhoneOnlyChangesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bobID := f.bob.ID
	_, err := f.leads.Create(ctx, f.admin, lead.LeadInput{Name: "老客户", Phone: "13900000002", SalesRepID: &bobID})
	require.NoError(t, err)

	res, err := f.svc.Import(ctx, f.alice, workbook(t,
		[]any{"改名", "13900000002", "whatever", "", "", "", "", "abc", "not a time", "yesterday"},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Zero(t, res.Created)
	assert.Empty(t, res.Errors)

	existing := f.byPhone(t, "13900000002")
	assert.Equal(t, "老客户", existing.Name)
	assert.Equal(t, lead.StatusWaitContact, existing.Status)
	require.NotNil(t, existing.SalesRepID)
	assert.Equal(t, f.alice.ID, *existing.SalesRepID)
}

func TestImport_AdminSendsRowsToPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.leads.Create(ctx, f.alice, lead.LeadInput{Name: "老客户", Phone: "13900000002"})
	require.NoError(t, err)

	res, err := f.svc.Import(ctx, f.admin, workbook(t,
		[]any{"新客户", "13900000001"},
		[]any{"老客户", "13900000002"},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Errors)

	assert.Nil(t, f.byPhone(t, "13900000001").SalesRepID)
	assert.Nil(t, f.byPhone(t, "13900000002").SalesRepID)
}

func TestImport_RejectsNonWorkbook(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Import(context.Background(), f.alice, bytes.NewBufferString("name,phone\n"))
	assert.ErrorIs(t, err, ErrInvalidWorkbook)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAll, k)

	k, err = ParseKind("signed")
	require.NoError(t, err)
	assert.Equal(t, "已签约客户.xlsx", k.Filename())

	_, err = ParseKind("everything")
	assert.ErrorIs(t, err, ErrInvalidKind)
}
