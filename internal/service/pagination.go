package service

import "shareit/internal/validation"

// pageBounds turns from/size into limit and offset. from is rounded up to the
// start of the next whole page, so from=5 size=10 selects the second page.
func pageBounds(from, size int) (limit, offset int, err error) {
	if err := validation.ValidatePage(from, size); err != nil {
		return 0, 0, err
	}
	page := (from + size - 1) / size
	return size, page * size, nil
}
