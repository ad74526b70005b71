package service

import "shareit/internal/models"

func toUserDto(u *models.User) models.UserDto {
	return models.UserDto{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toItemDto(i *models.Item) models.ItemDto {
	available := i.Available
	return models.ItemDto{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   &available,
		RequestID:   i.RequestID,
		OwnerID:     i.OwnerID,
	}
}

func toItemWithBookingsDto(i *models.Item) models.ItemWithBookingsDto {
	return models.ItemWithBookingsDto{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		OwnerID:     i.OwnerID,
		RequestID:   i.RequestID,
		Comments:    []models.CommentDto{},
	}
}

func toBookingDto(b *models.Booking) models.BookingDto {
	dto := models.BookingDto{
		ID:     b.ID,
		Start:  models.FormatDateTime(b.Start),
		End:    models.FormatDateTime(b.End),
		Status: b.Status,
	}
	if b.Item != nil {
		dto.Item = toItemDto(b.Item)
	}
	if b.Booker != nil {
		dto.Booker = toUserDto(b.Booker)
	}
	return dto
}

func toBookingForItemDto(b *models.Booking) *models.BookingForItemDto {
	if b == nil {
		return nil
	}
	return &models.BookingForItemDto{
		ID:       b.ID,
		Start:    models.FormatDateTime(b.Start),
		End:      models.FormatDateTime(b.End),
		ItemID:   b.ItemID,
		BookerID: b.BookerID,
		Status:   b.Status,
	}
}

func toCommentDto(c *models.Comment) models.CommentDto {
	return models.CommentDto{
		ID:         c.ID,
		Text:       c.Text,
		ItemID:     c.ItemID,
		AuthorName: c.AuthorName,
		Created:    models.FormatDateTime(c.Created),
	}
}

func toRequestDto(r *models.ItemRequest) models.ItemRequestDto {
	return models.ItemRequestDto{
		ID:          r.ID,
		Description: r.Description,
		RequesterID: r.RequesterID,
		Created:     models.FormatDateTime(r.Created),
	}
}

func toItemForRequestDto(i *models.Item) models.ItemForRequestDto {
	dto := models.ItemForRequestDto{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		OwnerID:     i.OwnerID,
	}
	if i.RequestID != nil {
		dto.RequestID = *i.RequestID
	}
	return dto
}
