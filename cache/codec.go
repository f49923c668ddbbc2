package cache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

func encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return data, nil
}

func decode(data []byte, dest any) error {
	if err := msgpack.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cache value: %w", err)
	}
	return nil
}
