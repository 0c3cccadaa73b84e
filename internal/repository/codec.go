package repository

import (
	"github.com/go-faster/jx"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/order"
)

// Fines and customer info are stored as JSONB. The shape is fixed here,
// decoded once at the storage boundary; nothing downstream parses JSON.

func encodeFines(fines []order.Fine) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, f := range fines {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(f.Name)
		e.FieldStart("amount")
		e.Int64(int64(f.Amount))
		e.FieldStart("lost_report")
		e.Bool(f.LostReport)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeFines(data []byte) ([]order.Fine, error) {
	var fines []order.Fine
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var f order.Fine
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "name":
				s, err := d.Str()
				f.Name = s
				return err
			case "amount":
				v, err := d.Int64()
				f.Amount = money.Money(v)
				return err
			case "lost_report":
				b, err := d.Bool()
				f.LostReport = b
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		fines = append(fines, f)
		return nil
	}); err != nil {
		return nil, err
	}
	return fines, nil
}

func encodeCustomer(c order.CustomerInfo) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("phone")
	e.Str(c.Phone)
	if c.Address != "" {
		e.FieldStart("address")
		e.Str(c.Address)
	}
	e.ObjEnd()
	return e.Bytes()
}

func decodeCustomer(data []byte) (order.CustomerInfo, error) {
	var c order.CustomerInfo
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			s, err := d.Str()
			c.Name = s
			return err
		case "phone":
			s, err := d.Str()
			c.Phone = s
			return err
		case "address":
			s, err := d.Str()
			c.Address = s
			return err
		default:
			return d.Skip()
		}
	})
	return c, err
}
