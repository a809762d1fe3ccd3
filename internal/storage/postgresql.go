// Package storage реализует хранилище данных на основе PostgreSQL
// для каталога товаров, проданных подписок и сотрудников.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/sales-tracker/internal/lib/calendar"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// ErrUserNotFound возвращается, если пользователя с таким именем нет.
var ErrUserNotFound = errors.New("user not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("storage.Ping: %w", err)
	}
	return nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'sales'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return fmt.Errorf("storage.CheckDatabaseReady: required table sales missing")
	}
	return nil
}

// ===== PRODUCT METHODS =====

// CreateProduct добавляет товар в каталог и возвращает его ID.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) (int, error) {
	const op = "storage.CreateProduct"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO products (product_name, duration, supplier, wc_price,
			      retail_price, notes, link)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING product_id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		p.ProductName, p.Duration, p.Supplier, p.WCPrice, p.RetailPrice, p.Notes, p.Link).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListProducts возвращает весь каталог, отсортированный по названию.
func (s *Storage) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT product_id, product_name, duration, supplier, wc_price,
			      retail_price, notes, link
			  FROM products
			  ORDER BY product_name ASC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Product, 0)
	for rows.Next() {
		var item models.Product
		if err := rows.Scan(&item.ID, &item.ProductName, &item.Duration, &item.Supplier,
			&item.WCPrice, &item.RetailPrice, &item.Notes, &item.Link); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListProductOptions возвращает сокращённый каталог для формы продажи.
func (s *Storage) ListProductOptions(ctx context.Context) ([]*models.ProductOption, error) {
	const op = "storage.ListProductOptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT product_id, product_name, duration, wc_price, retail_price
			  FROM products
			  ORDER BY product_name ASC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.ProductOption, 0)
	for rows.Next() {
		var item models.ProductOption
		if err := rows.Scan(&item.ID, &item.ProductName, &item.Duration,
			&item.WCPrice, &item.RetailPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ===== SALE METHODS =====

// CreateSale сохраняет продажу и возвращает её ID.
func (s *Storage) CreateSale(ctx context.Context, sale models.Sale) (int, error) {
	const op = "storage.CreateSale"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO sales (product_name, duration, customer, email, purchase_date,
			      end_date, seller, note, price, profit)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sale.ProductName, sale.Duration, sale.Customer, sale.Email, sale.PurchaseDate,
		calendar.PtrValue(sale.EndDate), sale.Seller, sale.Note, sale.Price, sale.Profit).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListSales возвращает все продажи, начиная с последних по дате покупки.
func (s *Storage) ListSales(ctx context.Context) ([]*models.Sale, error) {
	const op = "storage.ListSales"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, product_name, duration, customer, email, purchase_date,
			      end_date, seller, note, price, profit
			  FROM sales
			  ORDER BY purchase_date DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Sale, 0)
	for rows.Next() {
		var item models.Sale
		var endDate calendar.NullDate
		if err := rows.Scan(&item.ID, &item.ProductName, &item.Duration, &item.Customer,
			&item.Email, &item.PurchaseDate, &endDate, &item.Seller, &item.Note,
			&item.Price, &item.Profit); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.EndDate = endDate.Ptr()
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ===== USER METHODS =====

// CreateUser сохраняет сотрудника и возвращает его UUID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uuid, username, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uuid`
	var uuid string
	err := s.DB.QueryRowContext(ctx, query, user.UUID, user.Username, user.PasswordHash, user.Role).Scan(&uuid)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uuid, nil
}

// GetUserByUsername возвращает сотрудника по имени или ErrUserNotFound.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uuid, username, password_hash, role
			  FROM users
			  WHERE username = $1`
	var user models.User
	err := s.DB.QueryRowContext(ctx, query, username).Scan(&user.UUID, &user.Username, &user.PasswordHash, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}
