package schema

import (
	"time"

	"github.com/uptrace/bun"
)

// Category is a fixed reference row. Ids are explicit so seeds are stable
// across backends.
type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID   int64  `bun:"id,pk"`
	Name string `bun:"name,notnull,unique,type:varchar(100)"`
	Slug string `bun:"slug,notnull,unique,type:varchar(100)"`
}

// Post is the posts table. Rows are written through the storage executor,
// this model only describes the DDL.
type Post struct {
	bun.BaseModel `bun:"table:posts"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Title      string    `bun:"title,notnull,type:varchar(200)"`
	Content    string    `bun:"content,notnull,type:text"`
	Author     string    `bun:"author,notnull,type:varchar(100)"`
	CategoryID int64     `bun:"category_id,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,type:timestamp,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,type:timestamp,default:current_timestamp"`
}

// User is the users table.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique,type:varchar(50)"`
	Email        string    `bun:"email,notnull,type:varchar(255)"`
	PasswordHash string    `bun:"password_hash,notnull,type:varchar(255)"`
	CreatedAt    time.Time `bun:"created_at,notnull,type:timestamp,default:current_timestamp"`
}

// Seeds is the fixed category set inserted into an empty categories table,
// in insertion order.
var Seeds = []Category{
	{ID: 1, Name: "기술 스택", Slug: "tech-stack"},
	{ID: 2, Name: "Troubleshooting", Slug: "troubleshooting"},
	{ID: 3, Name: "Test", Slug: "test"},
}
