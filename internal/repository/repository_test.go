package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

// RepositoryTestSuite runs the storage operations against a fresh database
// per test. openDB defaults to a temporary SQLite file.
type RepositoryTestSuite struct {
	suite.Suite
	openDB func(t *testing.T) *sqlx.DB
	db     *sqlx.DB
	repo   *SQLRepository
	ctx    context.Context
}

func openTestDB(t *testing.T) *sqlx.DB {
	dsn := "file:" + filepath.Join(t.TempDir(), "finance.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	require.NoError(t, RunMigrations("sqlite", dsn), "failed to migrate test database")

	db, err := sqlx.Connect("sqlite", dsn)
	require.NoError(t, err, "failed to open test database")
	db.SetMaxOpenConns(1)
	return db
}

// SetupTest runs before each test
func (suite *RepositoryTestSuite) SetupTest() {
	if suite.openDB == nil {
		suite.openDB = openTestDB
	}
	suite.db = suite.openDB(suite.T())
	repo, err := NewSQLRepository(suite.db, zap.NewNop())
	require.NoError(suite.T(), err)
	suite.repo = repo
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *RepositoryTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (suite *RepositoryTestSuite) createUser(email string) *models.User {
	user := &models.User{Email: email, Name: "Test User", PasswordHash: "hash"}
	require.NoError(suite.T(), suite.repo.CreateUser(suite.ctx, user))
	return user
}

func (suite *RepositoryTestSuite) createCategory(userID int64, name string, typ models.CategoryType) *models.Category {
	category, err := suite.repo.CreateCategory(suite.ctx, &models.Category{UserID: userID, Name: name, Type: typ})
	require.NoError(suite.T(), err)
	return category
}

func (suite *RepositoryTestSuite) createRecord(kind models.RecordKind, userID, categoryID int64, amount string, date models.Date) *models.MoneyRecord {
	record, err := suite.repo.CreateRecord(suite.ctx, kind, &models.MoneyRecord{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     models.MustParseMoney(amount),
		Date:       date,
	})
	require.NoError(suite.T(), err)
	return record
}

func (suite *RepositoryTestSuite) TestCreateUserDuplicateEmail() {
	user := suite.createUser("dup@example.com")
	assert.NotZero(suite.T(), user.ID)
	assert.False(suite.T(), user.CreatedAt.IsZero())

	err := suite.repo.CreateUser(suite.ctx, &models.User{Email: "dup@example.com", Name: "Other", PasswordHash: "x"})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperr.Is(err, apperr.KindConflict))
}

func (suite *RepositoryTestSuite) TestGetUserMissingReturnsNil() {
	user, err := suite.repo.GetUserByEmail(suite.ctx, "nobody@example.com")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)

	user, err = suite.repo.GetUserByID(suite.ctx, 4242)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)
}

func (suite *RepositoryTestSuite) TestUpdateUserChangesOnlyGivenFields() {
	user := suite.createUser("update@example.com")
	name := "Renamed"

	updated, err := suite.repo.UpdateUser(suite.ctx, user.ID, models.UserUpdate{Name: &name})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Renamed", updated.Name)
	assert.Equal(suite.T(), "hash", updated.PasswordHash)
	assert.Equal(suite.T(), "update@example.com", updated.Email)

	_, err = suite.repo.UpdateUser(suite.ctx, 9999, models.UserUpdate{Name: &name})
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))
}

func (suite *RepositoryTestSuite) TestCategoryUniquePerUserAndType() {
	alice := suite.createUser("alice@example.com")
	bob := suite.createUser("bob@example.com")

	suite.createCategory(alice.ID, "Food", models.CategoryExpense)

	_, err := suite.repo.CreateCategory(suite.ctx, &models.Category{UserID: alice.ID, Name: "Food", Type: models.CategoryExpense})
	assert.True(suite.T(), apperr.Is(err, apperr.KindConflict))

	// Same name with the other type, or for another user, is fine
	suite.createCategory(alice.ID, "Food", models.CategoryIncome)
	suite.createCategory(bob.ID, "Food", models.CategoryExpense)

	expenseType := models.CategoryExpense
	categories, err := suite.repo.ListCategories(suite.ctx, alice.ID, &expenseType, models.Page{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), categories, 1)

	categories, err = suite.repo.ListCategories(suite.ctx, alice.ID, nil, models.Page{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), categories, 2)
}

func (suite *RepositoryTestSuite) TestRecordRequiresOwnedCategoryOfMatchingType() {
	alice := suite.createUser("alice@example.com")
	bob := suite.createUser("bob@example.com")
	salary := suite.createCategory(alice.ID, "Salary", models.CategoryIncome)
	bobsFood := suite.createCategory(bob.ID, "Food", models.CategoryExpense)

	// Foreign category looks like a missing one
	_, err := suite.repo.CreateRecord(suite.ctx, models.KindExpense, &models.MoneyRecord{
		UserID: alice.ID, CategoryID: bobsFood.ID, Amount: models.MustParseMoney("10"), Date: models.NewDate(2024, 1, 1),
	})
	assert.True(suite.T(), apperr.Is(err, apperr.KindReference))

	_, err = suite.repo.CreateRecord(suite.ctx, models.KindExpense, &models.MoneyRecord{
		UserID: alice.ID, CategoryID: 777, Amount: models.MustParseMoney("10"), Date: models.NewDate(2024, 1, 1),
	})
	assert.True(suite.T(), apperr.Is(err, apperr.KindReference))

	// Income category on an expense
	_, err = suite.repo.CreateRecord(suite.ctx, models.KindExpense, &models.MoneyRecord{
		UserID: alice.ID, CategoryID: salary.ID, Amount: models.MustParseMoney("10"), Date: models.NewDate(2024, 1, 1),
	})
	assert.True(suite.T(), apperr.Is(err, apperr.KindValidation))
}

func (suite *RepositoryTestSuite) TestRecordRoundTrip() {
	alice := suite.createUser("alice@example.com")
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)
	description := "Groceries"

	created, err := suite.repo.CreateRecord(suite.ctx, models.KindExpense, &models.MoneyRecord{
		UserID:      alice.ID,
		CategoryID:  food.ID,
		Amount:      models.MustParseMoney("123.45"),
		Description: &description,
		Date:        models.NewDate(2024, 3, 15),
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Food", created.CategoryName)
	assert.Equal(suite.T(), int64(12345), created.Amount.Cents())
	assert.Equal(suite.T(), "2024-03-15", created.Date.String())
	require.NotNil(suite.T(), created.Description)
	assert.Equal(suite.T(), "Groceries", *created.Description)

	fetched, err := suite.repo.GetRecord(suite.ctx, models.KindExpense, alice.ID, created.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), created.ID, fetched.ID)
	assert.Equal(suite.T(), created.Amount.Cents(), fetched.Amount.Cents())

	// Incomes and expenses are separate tables
	_, err = suite.repo.GetRecord(suite.ctx, models.KindIncome, alice.ID, created.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))
}

func (suite *RepositoryTestSuite) TestOtherUsersRecordsAreInvisible() {
	alice := suite.createUser("alice@example.com")
	bob := suite.createUser("bob@example.com")
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)
	record := suite.createRecord(models.KindExpense, alice.ID, food.ID, "50", models.NewDate(2024, 1, 10))

	_, err := suite.repo.GetRecord(suite.ctx, models.KindExpense, bob.ID, record.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))

	amount := models.MustParseMoney("1")
	_, err = suite.repo.UpdateRecord(suite.ctx, models.KindExpense, bob.ID, record.ID, models.RecordUpdate{Amount: &amount})
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))

	err = suite.repo.DeleteRecord(suite.ctx, models.KindExpense, bob.ID, record.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))

	records, err := suite.repo.ListRecords(suite.ctx, models.KindExpense, bob.ID, models.RecordFilter{}, models.Page{})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), records)

	// Alice's record is untouched
	fetched, err := suite.repo.GetRecord(suite.ctx, models.KindExpense, alice.ID, record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(5000), fetched.Amount.Cents())
}

func (suite *RepositoryTestSuite) TestUpdateRecordPartial() {
	alice := suite.createUser("alice@example.com")
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)
	rent := suite.createCategory(alice.ID, "Rent", models.CategoryExpense)
	record := suite.createRecord(models.KindExpense, alice.ID, food.ID, "20.00", models.NewDate(2024, 2, 1))

	amount := models.MustParseMoney("25.50")
	updated, err := suite.repo.UpdateRecord(suite.ctx, models.KindExpense, alice.ID, record.ID, models.RecordUpdate{Amount: &amount})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2550), updated.Amount.Cents())
	assert.Equal(suite.T(), food.ID, updated.CategoryID)
	assert.Equal(suite.T(), "2024-02-01", updated.Date.String())

	updated, err = suite.repo.UpdateRecord(suite.ctx, models.KindExpense, alice.ID, record.ID, models.RecordUpdate{CategoryID: &rent.ID})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Rent", updated.CategoryName)
	assert.Equal(suite.T(), int64(2550), updated.Amount.Cents())

	missing := int64(999)
	_, err = suite.repo.UpdateRecord(suite.ctx, models.KindExpense, alice.ID, record.ID, models.RecordUpdate{CategoryID: &missing})
	assert.True(suite.T(), apperr.Is(err, apperr.KindReference))
}

func (suite *RepositoryTestSuite) TestListRecordsFiltersAndPages() {
	alice := suite.createUser("alice@example.com")
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)
	rent := suite.createCategory(alice.ID, "Rent", models.CategoryExpense)

	suite.createRecord(models.KindExpense, alice.ID, food.ID, "10", models.NewDate(2024, 1, 5))
	suite.createRecord(models.KindExpense, alice.ID, rent.ID, "900", models.NewDate(2024, 1, 10))
	suite.createRecord(models.KindExpense, alice.ID, food.ID, "12", models.NewDate(2024, 1, 20))
	suite.createRecord(models.KindExpense, alice.ID, food.ID, "15", models.NewDate(2024, 2, 3))

	all, err := suite.repo.ListRecords(suite.ctx, models.KindExpense, alice.ID, models.RecordFilter{}, models.Page{})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 4)
	assert.Equal(suite.T(), "2024-02-03", all[0].Date.String(), "newest first")
	assert.Equal(suite.T(), "2024-01-05", all[3].Date.String())

	start := models.NewDate(2024, 1, 1)
	end := models.NewDate(2024, 1, 31)
	january, err := suite.repo.ListRecords(suite.ctx, models.KindExpense, alice.ID, models.RecordFilter{
		StartDate: &start, EndDate: &end, CategoryID: &food.ID,
	}, models.Page{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), january, 2)

	page, err := suite.repo.ListRecords(suite.ctx, models.KindExpense, alice.ID, models.RecordFilter{}, models.Page{Limit: 2, Offset: 1})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page, 2)
	assert.Equal(suite.T(), all[1].ID, page[0].ID)
	assert.Equal(suite.T(), all[2].ID, page[1].ID)
}

func (suite *RepositoryTestSuite) TestDeleteCategoryInUseIsRejected() {
	alice := suite.createUser("alice@example.com")
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)
	record := suite.createRecord(models.KindExpense, alice.ID, food.ID, "10", models.NewDate(2024, 1, 5))

	err := suite.repo.DeleteCategory(suite.ctx, alice.ID, food.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindConflict))

	_, err = suite.repo.GetCategory(suite.ctx, alice.ID, food.ID)
	assert.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.repo.DeleteRecord(suite.ctx, models.KindExpense, alice.ID, record.ID))
	require.NoError(suite.T(), suite.repo.DeleteCategory(suite.ctx, alice.ID, food.ID))

	_, err = suite.repo.GetCategory(suite.ctx, alice.ID, food.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))
}

func (suite *RepositoryTestSuite) TestDeleteUserCascades() {
	alice := suite.createUser("alice@example.com")
	bob := suite.createUser("bob@example.com")
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)
	salary := suite.createCategory(alice.ID, "Salary", models.CategoryIncome)
	bobsFood := suite.createCategory(bob.ID, "Food", models.CategoryExpense)
	suite.createRecord(models.KindExpense, alice.ID, food.ID, "10", models.NewDate(2024, 1, 5))
	suite.createRecord(models.KindIncome, alice.ID, salary.ID, "1000", models.NewDate(2024, 1, 1))
	suite.createRecord(models.KindExpense, bob.ID, bobsFood.ID, "7", models.NewDate(2024, 1, 5))
	_, err := suite.repo.CreateBalance(suite.ctx, &models.Balance{
		UserID: alice.ID, Amount: models.MustParseMoney("100"), Currency: "USD", Date: models.NewDate(2024, 1, 1),
	})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.repo.DeleteUser(suite.ctx, alice.ID))

	for _, table := range []string{"incomes", "expenses", "balances", "categories"} {
		var count int
		require.NoError(suite.T(), suite.db.Get(&count, suite.db.Rebind("SELECT COUNT(*) FROM "+table+" WHERE user_id = ?"), alice.ID))
		assert.Zero(suite.T(), count, table)
	}

	user, err := suite.repo.GetUserByID(suite.ctx, alice.ID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)

	// Bob keeps his data
	records, err := suite.repo.ListRecords(suite.ctx, models.KindExpense, bob.ID, models.RecordFilter{}, models.Page{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), records, 1)

	err = suite.repo.DeleteUser(suite.ctx, alice.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))
}

func (suite *RepositoryTestSuite) TestTotalsOnEmptyWindowAreZero() {
	alice := suite.createUser("alice@example.com")

	totals, err := suite.repo.Totals(suite.ctx, models.KindIncome, alice.ID, models.NewDate(2024, 1, 1), models.NewDate(2024, 1, 31))
	require.NoError(suite.T(), err)
	assert.True(suite.T(), totals.Total.IsZero())
	assert.Zero(suite.T(), totals.Count)
}

func (suite *RepositoryTestSuite) TestTotalsAndCategoryTotals() {
	alice := suite.createUser("alice@example.com")
	bob := suite.createUser("bob@example.com")
	salary := suite.createCategory(alice.ID, "Salary", models.CategoryIncome)
	rent := suite.createCategory(alice.ID, "Rent", models.CategoryExpense)
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)
	bobsFood := suite.createCategory(bob.ID, "Food", models.CategoryExpense)

	suite.createRecord(models.KindIncome, alice.ID, salary.ID, "5000", models.NewDate(2024, 1, 1))
	suite.createRecord(models.KindExpense, alice.ID, rent.ID, "1000", models.NewDate(2024, 1, 3))
	suite.createRecord(models.KindExpense, alice.ID, food.ID, "120.10", models.NewDate(2024, 1, 15))
	suite.createRecord(models.KindExpense, alice.ID, food.ID, "79.90", models.NewDate(2024, 1, 31))
	// Outside the window and another user's spending
	suite.createRecord(models.KindExpense, alice.ID, food.ID, "500", models.NewDate(2024, 2, 1))
	suite.createRecord(models.KindExpense, bob.ID, bobsFood.ID, "333", models.NewDate(2024, 1, 10))

	start, end := models.NewDate(2024, 1, 1), models.NewDate(2024, 1, 31)

	income, err := suite.repo.Totals(suite.ctx, models.KindIncome, alice.ID, start, end)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(500000), income.Total.Cents())
	assert.Equal(suite.T(), int64(1), income.Count)

	expenses, err := suite.repo.Totals(suite.ctx, models.KindExpense, alice.ID, start, end)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "1200.00", expenses.Total.String())
	assert.Equal(suite.T(), int64(3), expenses.Count)
	assert.Equal(suite.T(), "3800.00", income.Total.Sub(expenses.Total).String())

	byCategory, err := suite.repo.CategoryTotals(suite.ctx, models.KindExpense, alice.ID, start, end)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), byCategory, 2)
	assert.Equal(suite.T(), "Rent", byCategory[0].CategoryName)
	assert.Equal(suite.T(), int64(100000), byCategory[0].Total.Cents())
	assert.Equal(suite.T(), "Food", byCategory[1].CategoryName)
	assert.Equal(suite.T(), int64(20000), byCategory[1].Total.Cents())
	assert.Equal(suite.T(), int64(2), byCategory[1].Count)
}

func (suite *RepositoryTestSuite) TestBalances() {
	alice := suite.createUser("alice@example.com")

	latest, err := suite.repo.LatestBalance(suite.ctx, alice.ID)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), latest)

	for _, b := range []struct {
		amount string
		date   models.Date
	}{
		{"100.00", models.NewDate(2024, 1, 1)},
		{"300.00", models.NewDate(2024, 3, 1)},
		{"200.00", models.NewDate(2024, 2, 1)},
	} {
		_, err := suite.repo.CreateBalance(suite.ctx, &models.Balance{
			UserID: alice.ID, Amount: models.MustParseMoney(b.amount), Currency: "USD", Date: b.date,
		})
		require.NoError(suite.T(), err)
	}

	latest, err = suite.repo.LatestBalance(suite.ctx, alice.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), latest)
	assert.Equal(suite.T(), "300.00", latest.Amount.String())

	currency := "EUR"
	updated, err := suite.repo.UpdateBalance(suite.ctx, alice.ID, latest.ID, models.BalanceUpdate{Currency: &currency})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "EUR", updated.Currency)
	assert.Equal(suite.T(), "300.00", updated.Amount.String())

	start := models.NewDate(2024, 2, 1)
	balances, err := suite.repo.ListBalances(suite.ctx, alice.ID, models.BalanceFilter{StartDate: &start}, models.Page{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), balances, 2)

	require.NoError(suite.T(), suite.repo.DeleteBalance(suite.ctx, alice.ID, latest.ID))
	_, err = suite.repo.GetBalance(suite.ctx, alice.ID, latest.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))
}

func (suite *RepositoryTestSuite) TestConcurrentCreatesAreAllStored() {
	alice := suite.createUser("alice@example.com")
	food := suite.createCategory(alice.ID, "Food", models.CategoryExpense)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.repo.CreateRecord(suite.ctx, models.KindExpense, &models.MoneyRecord{
				UserID: alice.ID, CategoryID: food.ID, Amount: models.MustParseMoney("1.25"), Date: models.NewDate(2024, 1, 1),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(suite.T(), err)
	}

	totals, err := suite.repo.Totals(suite.ctx, models.KindExpense, alice.ID, models.NewDate(2024, 1, 1), models.NewDate(2024, 1, 1))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(workers), totals.Count)
	assert.Equal(suite.T(), "10.00", totals.Total.String())
}

func TestDialectFor(t *testing.T) {
	for _, driver := range []string{"postgres", "pgx"} {
		d, err := DialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name)
		assert.Equal(t, "FOR UPDATE", d.LockSuffix)
	}

	d, err := DialectFor("sqlite")
	require.NoError(t, err)
	assert.Empty(t, d.LockSuffix)

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}

func TestMigratorVersion(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "migrate.db") + "?_pragma=foreign_keys(1)"

	m, err := NewMigrator("sqlite", dsn)
	require.NoError(t, err)
	defer m.Close()

	_, _, ok, err := m.Version()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "second run is a no-op")

	version, dirty, ok, err := m.Version()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	require.NoError(t, m.Down(1))
	_, _, ok, err = m.Version()
	require.NoError(t, err)
	assert.False(t, ok)
}
