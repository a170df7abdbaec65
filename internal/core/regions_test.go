package core

import (
	"fmt"
	"testing"
)

func TestSelectRegions(t *testing.T) {
	all := []string{"a", "b", "c", "d", "e", "f"}
	tests := []struct {
		name    string
		sel     RegionSelection
		want    []string
		wantErr bool
	}{
		{"不筛选", RegionSelection{}, all, false},
		{"指定地区", RegionSelection{Only: []string{"x", "y"}}, []string{"x", "y"}, false},
		{"区间3:5", RegionSelection{StartEnd: "3:5"}, []string{"d", "e"}, false},
		{"省略终点", RegionSelection{StartEnd: "4:"}, []string{"e", "f"}, false},
		{"省略起点", RegionSelection{StartEnd: ":2"}, []string{"a", "b"}, false},
		{"负数终点", RegionSelection{StartEnd: "1:-3"}, []string{"b", "c"}, false},
		{"越界裁剪", RegionSelection{StartEnd: "4:100"}, []string{"e", "f"}, false},
		{"终点小于起点", RegionSelection{StartEnd: "5:2"}, []string{}, false},
		{"区间后再跳过", RegionSelection{StartEnd: "1:5", StartFrom: 2}, []string{"d", "e"}, false},
		{"跳过全部", RegionSelection{StartFrom: 10}, []string{}, false},
		{"格式错误", RegionSelection{StartEnd: "3-5"}, nil, true},
		{"非数字", RegionSelection{StartEnd: "a:b"}, nil, true},
		{"负数跳过", RegionSelection{StartFrom: -1}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectRegions(all, tt.sel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SelectRegions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("SelectRegions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectRegions_DoesNotAliasInput(t *testing.T) {
	all := []string{"a", "b", "c"}
	got, err := SelectRegions(all, RegionSelection{})
	if err != nil {
		t.Fatal(err)
	}
	got[0] = "z"
	if all[0] != "a" {
		t.Error("返回的切片不应与输入共享底层数组")
	}
}
